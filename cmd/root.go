// Package cmd provides the tplcat command line.
//
// Configuration is read, highest priority first, from command-line flags,
// TPLCAT_* environment variables (a .env file in the working directory is
// loaded into the environment first), the file named by --config or
// TPLCAT_CONFIG_FILE, and finally .tplcat.yml in the working directory.
//
// Environment variables follow the TPLCAT_<SECTION>_<OPTION> pattern, for
// example TPLCAT_CATALOG_ROOT=site/templates or TPLCAT_SERVER_PORT=8080.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tplcat",
	Short: "Build and browse a catalog of website templates",
	Long: `tplcat scans a directory tree of website templates, one template.json
manifest per template, and aggregates them into a single catalog document.
The catalog can then be listed, searched and served over HTTP.

Layout:
  templates/<category>/<template>/template.json

Quick Start:
  tplcat new restaurant bistro    Scaffold a template
  tplcat build                    Write data/templates.json
  tplcat list --sort popular      Browse the catalog
  tplcat serve --watch            Serve the catalog and rebuild on change`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetGlobalNormalizationFunc(normalizeFlagName)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is .tplcat.yml, can also use TPLCAT_CONFIG_FILE env var)")
	flags.VarP(newChoice("info", "debug", "info", "warn", "error"), "log-level", "l", "log level (debug, info, warn, error)")
	flags.Var(newChoice("text", "text", "json"), "log-format", "log format (text, json)")
	flags.String("catalog", "", "catalog document to read or write (default data/templates.json)")

	bindConfigFlag(rootCmd.PersistentFlags(), "log-level", "log.level")
	bindConfigFlag(rootCmd.PersistentFlags(), "log-format", "log.format")
	bindConfigFlag(rootCmd.PersistentFlags(), "catalog", "catalog.output")
}

// initConfig points viper at the configuration file and the environment.
func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: cannot read .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("TPLCAT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tplcat")
	}

	viper.SetEnvPrefix("TPLCAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvKeys(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Warning: cannot read config file:", err)
	}
}

// bindEnvKeys registers every configuration key so that Unmarshal sees
// environment overrides for keys absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"catalog.root", "catalog.manifest", "catalog.output", "catalog.hidden_prefix",
		"build.duplicates", "build.category_mismatch",
		"server.host", "server.port", "server.allowed_origins", "server.watch",
		"log.level", "log.format",
	} {
		_ = v.BindEnv(key)
	}
}

// loadConfig applies the flags the user set on cmd over the file and
// environment configuration, then loads and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.GetViper()
	applyConfigFlags(cmd.Flags(), v)

	cfg, err := config.LoadFrom(v)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
}
