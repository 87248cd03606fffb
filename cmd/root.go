package cmd

import (
	"fmt"
	"os"

	"audiocut/infrastructure/config"
	"audiocut/infrastructure/logging"
	"audiocut/infrastructure/state"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
	cfgFound bool
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "audiocut",
	Short: "Cut time ranges out of WAV and MP3 files",
	Long: `audiocut extracts a time range from an audio file and writes it as a
new file next to the source or in your downloads directory:

  - WAV/PCM files are cut on exact sample frames
  - MP3 files are cut on byte offsets estimated from the average bitrate
  - Finished cuts can be uploaded to Google Drive or MinIO

Example:
  audiocut cut --source interview.wav --range "0:30-1:30"`,
	SilenceUsage: true,
}

func Execute() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	var err error
	cfg, cfgFound, err = config.LoadOrDefault(cfgFile)
	if err != nil {
		// A broken file should not block help or setup; fall back to defaults
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		cfg = config.Default()
		cfgFound = false
	}
	config.ApplyEnv(cfg)
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	l, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
		l, _ = logging.New(logging.Options{Level: cfg.Logging.Level})
	}
	logger = l
}

// GetConfig returns the loaded configuration, or the defaults when no file exists
func GetConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// GetLogger returns the process logger
func GetLogger() *zap.Logger {
	return logger
}

// GetStateStore returns the store holding the last used files
func GetStateStore() *state.Store {
	return state.NewStore(GetConfig().Paths.StateFile)
}
