// Package config loads snipvault settings from the config file,
// environment, and defaults, in that order of increasing precedence
// for the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file inside the config directory.
const FileName = "config.yaml"

// Config holds every tunable the CLI and daemon consume.
type Config struct {
	// DataDir holds the canonical collection file and the state database.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// BackupDir is the cloud-synced directory holding the mirror file.
	// Empty disables mirroring.
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir"`

	// GistToken authenticates against the gist API. Usually supplied via
	// SNIPVAULT_GIST_TOKEN rather than the file.
	GistToken string `mapstructure:"gist_token" yaml:"gist_token,omitempty"`

	// AutoSync makes the daemon push/pull the remote replicas on a timer.
	AutoSync bool `mapstructure:"auto_sync" yaml:"auto_sync"`

	// SyncInterval is the period between automatic remote syncs.
	SyncInterval time.Duration `mapstructure:"sync_interval" yaml:"sync_interval"`

	// DashboardPort is the local port for the daemon's live dashboard.
	// Zero disables the dashboard.
	DashboardPort int `mapstructure:"dashboard_port" yaml:"dashboard_port"`

	// LogFile, when set, tees daemon logs to a rotated file.
	LogFile string `mapstructure:"log_file" yaml:"log_file,omitempty"`
}

// DefaultDir returns the per-user config directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, "snipvault"), nil
}

func defaults(v *viper.Viper, configDir string) {
	v.SetDefault("data_dir", filepath.Join(configDir, "data"))
	v.SetDefault("backup_dir", "")
	v.SetDefault("gist_token", "")
	v.SetDefault("auto_sync", false)
	v.SetDefault("sync_interval", 5*time.Minute)
	v.SetDefault("dashboard_port", 0)
	v.SetDefault("log_file", "")
}

// Load reads configuration from dir/config.yaml plus SNIPVAULT_*
// environment variables. A missing config file is fine; defaults apply.
func Load(dir string) (Config, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, FileName))
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SNIPVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v, dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Init writes a commented starter config to dir/config.yaml. It refuses
// to overwrite an existing file.
func Init(dir string, cfg Config) (string, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config already exists at %s", path)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	header := "# snipvault configuration\n# Environment variables with a SNIPVAULT_ prefix override these values.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// Save rewrites dir/config.yaml with the given settings, creating the
// directory if needed. Used by setup to persist answers.
func Save(dir string, cfg Config) (string, error) {
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}

// CollectionPath returns the canonical store file under the data dir.
func (c Config) CollectionPath() string {
	return filepath.Join(c.DataDir, "collection.json")
}

// StatePath returns the sqlite state database under the data dir.
func (c Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}
