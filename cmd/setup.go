package cmd

import (
	"fmt"
	"os"
	"strings"

	"audiocut/infrastructure/config"
	"audiocut/infrastructure/filesystem"
	"audiocut/infrastructure/logging"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through choosing where cuts are saved, how they
are named, how much is logged, and optionally the Google Drive and MinIO
upload targets.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, cfgFile, DefaultOutput)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, output OutputWriter) error {
	if configPath == "" {
		configPath = config.DefaultPath
	}

	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(output, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(output, "Welcome to audiocut setup!")
	fmt.Fprintln(output)

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}

	if err := promptOutput(prompter, cfg); err != nil {
		return err
	}

	if err := promptLogging(prompter, cfg); err != nil {
		return err
	}

	if err := promptGoogle(prompter, cfg); err != nil {
		return err
	}

	if err := promptMinio(prompter, cfg); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(output)
	fmt.Fprintf(output, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	defaultDownloads := filesystem.UserDownloadDir()
	if defaultDownloads == "" {
		defaultDownloads = cfg.Paths.DownloadDirectory
	}

	downloads, err := prompter.Input("Where should cut files be saved?", defaultDownloads)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Paths.DownloadDirectory = strings.TrimSpace(downloads)

	stateFile, err := prompter.Input("Where should the last used file be remembered?", cfg.Paths.StateFile)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if stateFile = strings.TrimSpace(stateFile); stateFile != "" {
		cfg.Paths.StateFile = stateFile
	}

	return nil
}

func promptOutput(prompter Prompter, cfg *config.Config) error {
	suffix, err := prompter.Input("Suffix added to cut file names?", cfg.Output.Suffix)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if suffix = strings.TrimSpace(suffix); suffix == "" {
		return fmt.Errorf("suffix is required")
	}
	if strings.ContainsAny(suffix, `/\`) {
		return fmt.Errorf("suffix must not contain path separators")
	}
	cfg.Output.Suffix = suffix

	atomic, err := prompter.Confirm("Write cuts to a temporary file first so failures leave nothing behind?", cfg.Output.Atomic)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Output.Atomic = atomic

	return nil
}

func promptLogging(prompter Prompter, cfg *config.Config) error {
	level, err := prompter.Input("Log level (debug, info, warn, error)?", cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
	case logging.DebugLevel, logging.InfoLevel, logging.WarnLevel, logging.ErrorLevel:
		cfg.Logging.Level = level
	default:
		return fmt.Errorf("unknown log level %q", level)
	}

	file, err := prompter.Input("Log file (leave empty to log to the terminal only)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Logging.File = strings.TrimSpace(file)

	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Upload cuts to Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enable {
		return nil
	}

	credentials, err := prompter.Input("Path to Google credentials file?", cfg.Google.CredentialsFile)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials != "" {
		cfg.Google.CredentialsFile = credentials
	}

	folder, err := prompter.Input("Google Drive folder ID for cuts?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.FolderID = folder

	return nil
}

func promptMinio(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Upload cuts to a MinIO / S3 bucket?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enable {
		return nil
	}

	endpoint, err := prompter.Input("MinIO endpoint (host:port)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	cfg.Minio.Endpoint = endpoint

	bucket, err := prompter.Input("Bucket name?", cfg.Minio.Bucket)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if bucket != "" {
		cfg.Minio.Bucket = bucket
	}

	useSSL, err := prompter.Confirm("Use HTTPS?", cfg.Minio.UseSSL)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Minio.UseSSL = useSSL

	// Keys stay out of the file; MINIO_ACCESS_KEY and MINIO_SECRET_KEY are read from the environment
	return nil
}
