package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// GitHubConfig holds the remote repository to check instead of the local directory.
type GitHubConfig struct {
	Repo  string `mapstructure:"repo"`
	Ref   string `mapstructure:"ref"`
	Token string `mapstructure:"token"`
}

// ExportConfig holds defaults of the export command.
type ExportConfig struct {
	UseDependencyLinks bool `mapstructure:"use_dependency_links"`
}

// Config holds all runtime configuration for a pipcheck run.
// Values are populated from .pipcheck.yaml, PIPCHECK_* env vars, and CLI flags.
type Config struct {
	Dir         string       `mapstructure:"dir"`
	Strict      bool         `mapstructure:"strict"`
	IgnoreLocal bool         `mapstructure:"ignore_local"`
	Lockfile    bool         `mapstructure:"lockfile"`
	Format      string       `mapstructure:"format"`
	NoColor     bool         `mapstructure:"no_color"`
	Verbose     bool         `mapstructure:"verbose"`
	GitHub      GitHubConfig `mapstructure:"github"`
	Export      ExportConfig `mapstructure:"export"`
}

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("dir", ".")
	viper.SetDefault("strict", false)
	viper.SetDefault("ignore_local", false)
	viper.SetDefault("lockfile", false)
	viper.SetDefault("format", FormatText)
	viper.SetDefault("no_color", false)
	viper.SetDefault("verbose", false)
	viper.SetDefault("github.repo", "")
	viper.SetDefault("github.ref", "")
	viper.SetDefault("github.token", "")
	viper.SetDefault("export.use_dependency_links", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values viper can not type check.
func (c Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", c.Format)
	}
	if c.GitHub.Ref != "" && c.GitHub.Repo == "" {
		return fmt.Errorf("github ref %q given without a repository", c.GitHub.Ref)
	}
	return nil
}
