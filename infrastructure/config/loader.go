package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config file lives unless --config says otherwise
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Google  GoogleConfig  `yaml:"google"`
	Minio   MinioConfig   `yaml:"minio"`
}

// PathsConfig contains directory and state locations
type PathsConfig struct {
	DownloadDirectory string `yaml:"download_directory"`
	StateFile         string `yaml:"state_file"`
}

// OutputConfig controls how cut files are written
type OutputConfig struct {
	Suffix string `yaml:"suffix"`
	Atomic bool   `yaml:"atomic"`
}

// LoggingConfig contains structured logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// GoogleConfig contains Google Drive upload settings
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	TokenFile       string `yaml:"token_file"`
	FolderID        string `yaml:"folder_id"`
}

// MinioConfig contains S3-compatible object storage settings
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	downloads := ""
	if home, err := os.UserHomeDir(); err == nil {
		downloads = filepath.Join(home, "Downloads")
	}

	return &Config{
		Paths: PathsConfig{
			DownloadDirectory: downloads,
			StateFile:         "config/state.yaml",
		},
		Output: OutputConfig{
			Suffix: "_cut",
			Atomic: true,
		},
		Logging: LoggingConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Google: GoogleConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},
		Minio: MinioConfig{
			Bucket: "audiocut",
			UseSSL: true,
		},
	}
}

// Load reads the YAML file at path over the defaults.
// A missing file returns an error wrapping fs.ErrNotExist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not exist
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from .env files without overriding the environment.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// ApplyEnv overrides file values with environment variables
func ApplyEnv(cfg *Config) {
	cfg.Paths.DownloadDirectory = getEnv("AUDIOCUT_DOWNLOAD_DIR", cfg.Paths.DownloadDirectory)
	cfg.Paths.StateFile = getEnv("AUDIOCUT_STATE_FILE", cfg.Paths.StateFile)
	cfg.Logging.Level = getEnv("AUDIOCUT_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.File = getEnv("AUDIOCUT_LOG_FILE", cfg.Logging.File)

	cfg.Minio.Endpoint = getEnv("MINIO_ENDPOINT", cfg.Minio.Endpoint)
	cfg.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", cfg.Minio.AccessKey)
	cfg.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", cfg.Minio.SecretKey)
	cfg.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Minio.Bucket)
	cfg.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", cfg.Minio.UseSSL)
}
