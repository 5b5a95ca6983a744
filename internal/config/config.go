// Package config provides configuration management for tplcat using Viper
// for flexible configuration loading from files, environment variables, and
// command-line flags.
//
// The configuration system supports a .tplcat.yml file, environment variable
// overrides with the TPLCAT_ prefix, and validation. It covers where template
// manifests are discovered, where the catalog document is written, the
// builder's duplicate and category policies, the preview server and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/conneroisu/tplcat/internal/validation"
)

// Duplicate id policies applied while aggregating a catalog.
const (
	DuplicatesReject    = "reject"
	DuplicatesFirstWins = "first-wins"
	DuplicatesLastWins  = "last-wins"
	DuplicatesKeep      = "keep"
)

// Category mismatch policies, applied when a manifest's category does not
// slugify to the name of the directory it was found in.
const (
	MismatchWarn   = "warn"
	MismatchIgnore = "ignore"
	MismatchReject = "reject"
)

// Default values applied by Load when a key is not set.
const (
	DefaultRoot         = "templates"
	DefaultManifest     = "template.json"
	DefaultOutput       = "data/templates.json"
	DefaultHiddenPrefix = "."
	DefaultHost         = "localhost"
	DefaultPort         = 3000
)

type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Build   BuildConfig   `mapstructure:"build" yaml:"build"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

type CatalogConfig struct {
	Root         string `mapstructure:"root" yaml:"root"`
	Manifest     string `mapstructure:"manifest" yaml:"manifest"`
	Output       string `mapstructure:"output" yaml:"output"`
	HiddenPrefix string `mapstructure:"hidden_prefix" yaml:"hidden_prefix"`
}

type BuildConfig struct {
	Duplicates       string `mapstructure:"duplicates" yaml:"duplicates"`
	CategoryMismatch string `mapstructure:"category_mismatch" yaml:"category_mismatch"`
}

type ServerConfig struct {
	Host           string   `mapstructure:"host" yaml:"host"`
	Port           int      `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	Watch          bool     `mapstructure:"watch" yaml:"watch"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load builds the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds the configuration from v, applies defaults and validates it.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// viper keeps flag and env values for slices as strings
	if v.IsSet("server.allowed_origins") && len(config.Server.AllowedOrigins) == 0 {
		config.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	// an explicit port 0 asks for an ephemeral port
	explicitPort := v.IsSet("server.port")
	port := config.Server.Port
	applyDefaults(&config)
	if explicitPort {
		config.Server.Port = port
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Catalog.Root == "" {
		config.Catalog.Root = DefaultRoot
	}
	if config.Catalog.Manifest == "" {
		config.Catalog.Manifest = DefaultManifest
	}
	if config.Catalog.Output == "" {
		config.Catalog.Output = DefaultOutput
	}
	if config.Catalog.HiddenPrefix == "" {
		config.Catalog.HiddenPrefix = DefaultHiddenPrefix
	}

	if config.Build.Duplicates == "" {
		config.Build.Duplicates = DuplicatesReject
	}
	if config.Build.CategoryMismatch == "" {
		config.Build.CategoryMismatch = MismatchWarn
	}

	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if config.Server.Port == 0 {
		config.Server.Port = DefaultPort
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for correctness
func validateConfig(config *Config) error {
	if err := validateCatalogConfig(&config.Catalog); err != nil {
		return fmt.Errorf("catalog config: %w", err)
	}
	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateLogConfig(&config.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	return nil
}

func validateCatalogConfig(config *CatalogConfig) error {
	if strings.ContainsAny(config.Manifest, `/\`) {
		return fmt.Errorf("manifest must be a file name, got %q", config.Manifest)
	}
	if strings.HasPrefix(config.Manifest, config.HiddenPrefix) {
		return fmt.Errorf("manifest %q would be treated as hidden (prefix %q)", config.Manifest, config.HiddenPrefix)
	}

	output := filepath.Clean(config.Output)
	if output == "." || strings.HasSuffix(config.Output, "/") {
		return fmt.Errorf("output must name a file, got %q", config.Output)
	}
	if filepath.Clean(config.Root) == output {
		return fmt.Errorf("output %q must differ from root", config.Output)
	}

	return nil
}

func validateBuildConfig(config *BuildConfig) error {
	if err := validateChoice("duplicates", config.Duplicates, ValidDuplicatePolicies()); err != nil {
		return err
	}
	return validateChoice("category_mismatch", config.CategoryMismatch, ValidMismatchPolicies())
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if strings.ContainsAny(config.Host, ";&|$`()<>\"'\\ ") {
		return fmt.Errorf("host %q contains invalid characters", config.Host)
	}

	for _, origin := range config.AllowedOrigins {
		if err := validation.ValidateAllowedOrigin(origin); err != nil {
			return fmt.Errorf("allowed_origins: %w", err)
		}
	}

	return nil
}

func validateLogConfig(config *LogConfig) error {
	if err := validateChoice("level", strings.ToLower(config.Level), []string{"debug", "info", "warn", "warning", "error"}); err != nil {
		return err
	}
	return validateChoice("format", config.Format, []string{"text", "json"})
}

func validateChoice(key, value string, valid []string) error {
	for _, v := range valid {
		if value == v {
			return nil
		}
	}
	return fmt.Errorf("%s %q is not one of %s", key, value, strings.Join(valid, ", "))
}

// ValidDuplicatePolicies lists the accepted build.duplicates values.
func ValidDuplicatePolicies() []string {
	return []string{DuplicatesReject, DuplicatesFirstWins, DuplicatesLastWins, DuplicatesKeep}
}

// ValidMismatchPolicies lists the accepted build.category_mismatch values.
func ValidMismatchPolicies() []string {
	return []string{MismatchWarn, MismatchIgnore, MismatchReject}
}

// Address returns the host:port the preview server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
