// Package config loads run configuration from config files, environment
// variables, and command-line flags bound through viper.
package config

import (
	"fmt"
	"strings"

	"github.com/Jumpaku/go-cloudindex"
	"github.com/Jumpaku/go-cloudindex/output"
	"github.com/spf13/viper"
)

// Backend names accepted by the backend key.
const (
	BackendDrive   = "drive"
	BackendDropbox = "dropbox"
)

// Config represents the full run configuration.
type Config struct {
	Backend string        `mapstructure:"backend"`
	Root    RootConfig    `mapstructure:"root"`
	Output  OutputConfig  `mapstructure:"output"`
	Index   IndexConfig   `mapstructure:"index"`
	Log     LogConfig     `mapstructure:"log"`
	Google  GoogleConfig  `mapstructure:"google"`
	Dropbox DropboxConfig `mapstructure:"dropbox"`
}

// RootConfig identifies the folder tree to index.
type RootConfig struct {
	FolderID   string `mapstructure:"folder_id"`
	FolderName string `mapstructure:"folder_name"`
	Path       string `mapstructure:"path"`
}

// OutputConfig controls where and how the snapshot is written.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Dir    string `mapstructure:"dir"`
	File   string `mapstructure:"file"`
}

// IndexConfig tunes the traversal and link collection.
type IndexConfig struct {
	PageSize   int64  `mapstructure:"page_size"`
	MaxRetries int    `mapstructure:"max_retries"`
	MaxDepth   int    `mapstructure:"max_depth"`
	Share      bool   `mapstructure:"share"`
	ShareRole  string `mapstructure:"share_role"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// GoogleConfig locates the Drive OAuth material.
type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// DropboxConfig holds the Dropbox API credentials.
type DropboxConfig struct {
	AccessToken string `mapstructure:"access_token"`
}

// Load loads the configuration from viper.
func Load() (*Config, error) {
	cfg := &Config{}

	// Set defaults
	setDefaults()

	// Unmarshal configuration
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, cloudindex.NewInvalidConfigError("failed to unmarshal configuration", err)
	}

	cfg.Backend = strings.ToLower(cfg.Backend)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("backend", BackendDrive)

	// Output defaults
	viper.SetDefault("output.format", "csv")

	// Traversal defaults
	viper.SetDefault("index.page_size", 1000)
	viper.SetDefault("index.max_retries", 7)
	viper.SetDefault("index.max_depth", 0) // Unlimited
	viper.SetDefault("index.share", false)
	viper.SetDefault("index.share_role", "reader")

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)

	// Credential defaults
	viper.SetDefault("google.credentials_file", "credentials.json")
	viper.SetDefault("google.token_file", "token.json")

	// Environment variable mappings
	viper.BindEnv("root.folder_id", "ROOT_FOLDER_ID")
	viper.BindEnv("root.folder_name", "ROOT_FOLDER_NAME")
	viper.BindEnv("google.credentials_file", "GOOGLE_CREDENTIALS_FILE")
	viper.BindEnv("google.token_file", "GOOGLE_TOKEN_FILE")
	viper.BindEnv("dropbox.access_token", "DROPBOX_ACCESS_TOKEN")
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendDrive:
		if c.Root.FolderID == "" {
			return fmt.Errorf("root.folder_id is required for the drive backend: %w", cloudindex.ErrInvalidConfig)
		}
	case BackendDropbox:
		if c.Root.FolderID == "" && c.Root.Path == "" {
			return fmt.Errorf("root.folder_id or root.path is required for the dropbox backend: %w", cloudindex.ErrInvalidConfig)
		}
		if c.Dropbox.AccessToken == "" {
			return fmt.Errorf("dropbox.access_token is required for the dropbox backend: %w", cloudindex.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown backend '%s': %w", c.Backend, cloudindex.ErrInvalidConfig)
	}

	if _, err := output.ParseFormat(c.Output.Format); err != nil {
		return err
	}

	if c.Index.PageSize < 1 || c.Index.PageSize > 1000 {
		return fmt.Errorf("index.page_size must be between 1 and 1000, got %d: %w", c.Index.PageSize, cloudindex.ErrInvalidConfig)
	}
	if c.Index.MaxRetries < 1 {
		return fmt.Errorf("index.max_retries must be at least 1, got %d: %w", c.Index.MaxRetries, cloudindex.ErrInvalidConfig)
	}
	if c.Index.MaxDepth < 0 {
		return fmt.Errorf("index.max_depth must not be negative, got %d: %w", c.Index.MaxDepth, cloudindex.ErrInvalidConfig)
	}

	return nil
}
