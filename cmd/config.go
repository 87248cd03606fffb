package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"audiocut/infrastructure/config"

	"github.com/spf13/cobra"
)

// DefaultOutput is the default output writer for commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit configuration",
	Long: `Show, read and change entries of the configuration file.

Keys use the dotted form of the YAML sections, e.g. output.suffix or
minio.endpoint. Secrets are masked in "config show".

Examples:
  audiocut config show
  audiocut config get paths.download_directory
  audiocut config set output.suffix _clip
  audiocut config set minio.use_ssl false`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every configuration entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunConfigShowWithDependencies(GetConfig(), cfgFile, cfgFound, DefaultOutput)
	},
}

// RunConfigShowWithDependencies runs the show command with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, configPath string, found bool, out OutputWriter) error {
	if found {
		fmt.Fprintf(out, "Config file: %s\n\n", configPath)
	} else {
		fmt.Fprintf(out, "Config file: %s (not found, showing defaults)\n\n", configPath)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	for _, e := range config.NewConfigManager(cfg, configPath).List() {
		fmt.Fprintf(w, "%s\t%s\n", e.Key, e.Value)
	}
	return w.Flush()
}

// --- GET command ---

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunConfigGetWithDependencies(GetConfig(), cfgFile, args[0], DefaultOutput)
	},
}

// RunConfigGetWithDependencies runs the get command with injected dependencies
func RunConfigGetWithDependencies(cfg *config.Config, configPath, key string, out OutputWriter) error {
	value, err := config.NewConfigManager(cfg, configPath).Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value)
	return nil
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one configuration entry and save the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reload without environment overrides so they are not written back
		fileCfg, _, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(fileCfg, cfgFile, args[0], args[1], DefaultOutput)
	},
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(cfg *config.Config, configPath, key, value string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.Set(key, value); err != nil {
		return err
	}

	saved, err := mgr.Get(key)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Set %s = %s in %s\n", key, saved, configPath)
	return nil
}
