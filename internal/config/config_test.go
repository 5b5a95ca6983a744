package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setup       func()
		expectError bool
		check       func(t *testing.T, cfg *Config)
	}{
		{
			name: "defaults",
			setup: func() {
				viper.Reset()
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "templates", cfg.Catalog.Root)
				assert.Equal(t, "template.json", cfg.Catalog.Manifest)
				assert.Equal(t, "data/templates.json", cfg.Catalog.Output)
				assert.Equal(t, ".", cfg.Catalog.HiddenPrefix)
				assert.Equal(t, DuplicatesReject, cfg.Build.Duplicates)
				assert.Equal(t, MismatchWarn, cfg.Build.CategoryMismatch)
				assert.Equal(t, "localhost:3000", cfg.Server.Address())
				assert.Equal(t, "info", cfg.Log.Level)
				assert.Equal(t, "text", cfg.Log.Format)
			},
		},
		{
			name: "custom catalog paths and policies",
			setup: func() {
				viper.Reset()
				viper.Set("catalog.root", "site/templates")
				viper.Set("catalog.output", "public/catalog.json")
				viper.Set("build.duplicates", "first-wins")
				viper.Set("build.category_mismatch", "reject")
				viper.Set("server.port", 8080)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "site/templates", cfg.Catalog.Root)
				assert.Equal(t, "public/catalog.json", cfg.Catalog.Output)
				assert.Equal(t, DuplicatesFirstWins, cfg.Build.Duplicates)
				assert.Equal(t, MismatchReject, cfg.Build.CategoryMismatch)
				assert.Equal(t, 8080, cfg.Server.Port)
			},
		},
		{
			name: "allowed origins list",
			setup: func() {
				viper.Reset()
				viper.Set("server.allowed_origins", []string{"localhost:3000", "example.com"})
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"localhost:3000", "example.com"}, cfg.Server.AllowedOrigins)
			},
		},
		{
			name: "explicit ephemeral port",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 0)
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 0, cfg.Server.Port)
				assert.Equal(t, "localhost:0", cfg.Server.Address())
			},
		},
		{
			name: "origin with a path",
			setup: func() {
				viper.Reset()
				viper.Set("server.allowed_origins", []string{"https://example.com/app"})
			},
			expectError: true,
		},
		{
			name: "invalid duplicate policy",
			setup: func() {
				viper.Reset()
				viper.Set("build.duplicates", "merge")
			},
			expectError: true,
		},
		{
			name: "invalid mismatch policy",
			setup: func() {
				viper.Reset()
				viper.Set("build.category_mismatch", "panic")
			},
			expectError: true,
		},
		{
			name: "invalid port type",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", "invalid_port")
			},
			expectError: true,
		},
		{
			name: "port out of range",
			setup: func() {
				viper.Reset()
				viper.Set("server.port", 70000)
			},
			expectError: true,
		},
		{
			name: "manifest with a directory component",
			setup: func() {
				viper.Reset()
				viper.Set("catalog.manifest", "meta/template.json")
			},
			expectError: true,
		},
		{
			name: "hidden manifest name",
			setup: func() {
				viper.Reset()
				viper.Set("catalog.manifest", ".template.json")
			},
			expectError: true,
		},
		{
			name: "output is a directory",
			setup: func() {
				viper.Reset()
				viper.Set("catalog.output", "data/")
			},
			expectError: true,
		},
		{
			name: "unknown log format",
			setup: func() {
				viper.Reset()
				viper.Set("log.format", "xml")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer viper.Reset()

			cfg, err := Load()
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".tplcat.yml")
	content := `catalog:
  root: ./sites
  hidden_prefix: "_"
build:
  duplicates: last-wins
server:
  host: 0.0.0.0
  port: 4000
  allowed_origins:
    - localhost:4000
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := LoadFrom(v)
	require.NoError(t, err)

	assert.Equal(t, "./sites", cfg.Catalog.Root)
	assert.Equal(t, "_", cfg.Catalog.HiddenPrefix)
	assert.Equal(t, DuplicatesLastWins, cfg.Build.Duplicates)
	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Address())
	assert.Equal(t, []string{"localhost:4000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, validateConfig(cfg))
	assert.ElementsMatch(t, []string{"reject", "first-wins", "last-wins", "keep"}, ValidDuplicatePolicies())
	assert.ElementsMatch(t, []string{"warn", "ignore", "reject"}, ValidMismatchPolicies())
}
