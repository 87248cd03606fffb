package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// field binds a dotted key to one Config value
type field struct {
	get    func(c *Config) string
	set    func(c *Config, v string) error
	secret bool
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = strings.TrimSpace(v); return nil },
	}
}

func boolField(p func(c *Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%w: %q is not true or false", ErrInvalidValue, v)
			}
			*p(c) = b
			return nil
		},
	}
}

func intField(p func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidValue, v)
			}
			*p(c) = n
			return nil
		},
	}
}

func secretField(p func(c *Config) *string) field {
	f := stringField(p)
	f.secret = true
	return f
}

var fields = map[string]field{
	"paths.download_directory": stringField(func(c *Config) *string { return &c.Paths.DownloadDirectory }),
	"paths.state_file":         stringField(func(c *Config) *string { return &c.Paths.StateFile }),
	"output.suffix":            stringField(func(c *Config) *string { return &c.Output.Suffix }),
	"output.atomic":            boolField(func(c *Config) *bool { return &c.Output.Atomic }),
	"logging.level": {
		get: func(c *Config) string { return c.Logging.Level },
		set: func(c *Config, v string) error {
			v = strings.ToLower(strings.TrimSpace(v))
			switch v {
			case "debug", "info", "warn", "error":
				c.Logging.Level = v
				return nil
			}
			return fmt.Errorf("%w: level must be debug, info, warn or error", ErrInvalidValue)
		},
	},
	"logging.file":            stringField(func(c *Config) *string { return &c.Logging.File }),
	"logging.max_size_mb":     intField(func(c *Config) *int { return &c.Logging.MaxSizeMB }),
	"logging.max_backups":     intField(func(c *Config) *int { return &c.Logging.MaxBackups }),
	"logging.max_age_days":    intField(func(c *Config) *int { return &c.Logging.MaxAgeDays }),
	"logging.compress":        boolField(func(c *Config) *bool { return &c.Logging.Compress }),
	"google.credentials_file": stringField(func(c *Config) *string { return &c.Google.CredentialsFile }),
	"google.token_file":       stringField(func(c *Config) *string { return &c.Google.TokenFile }),
	"google.folder_id":        stringField(func(c *Config) *string { return &c.Google.FolderID }),
	"minio.endpoint":          stringField(func(c *Config) *string { return &c.Minio.Endpoint }),
	"minio.access_key":        stringField(func(c *Config) *string { return &c.Minio.AccessKey }),
	"minio.secret_key":        secretField(func(c *Config) *string { return &c.Minio.SecretKey }),
	"minio.bucket":            stringField(func(c *Config) *string { return &c.Minio.Bucket }),
	"minio.region":            stringField(func(c *Config) *string { return &c.Minio.Region }),
	"minio.use_ssl":           boolField(func(c *Config) *bool { return &c.Minio.UseSSL }),
}

// ConfigManager reads and writes individual config entries by dotted key
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Entry is one key/value pair of the configuration
type Entry struct {
	Key   string
	Value string
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookup(key string) (string, field, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	f, ok := fields[key]
	if !ok {
		return key, field{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return key, f, nil
}

// Get returns the value of key
func (m *ConfigManager) Get(key string) (string, error) {
	_, f, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(m.config), nil
}

// Set updates key and saves the file
func (m *ConfigManager) Set(key, value string) error {
	_, f, err := lookup(key)
	if err != nil {
		return err
	}
	if err := f.set(m.config, value); err != nil {
		return err
	}
	return Save(m.config, m.configPath)
}

// List returns all entries in key order. Secrets are masked.
func (m *ConfigManager) List() []Entry {
	entries := make([]Entry, 0, len(fields))
	for _, k := range Keys() {
		f := fields[k]
		v := f.get(m.config)
		if f.secret && v != "" {
			v = "********"
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
	return entries
}

// SuggestSetCommand returns the command that sets a missing entry
func SuggestSetCommand(key, example string) string {
	return fmt.Sprintf(`audiocut config set %s %q`, key, example)
}
