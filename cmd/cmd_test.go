package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tplcat/internal/query"
	"github.com/conneroisu/tplcat/internal/types"
)

// execute runs the root command in a clean state and returns stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// workspace moves into an empty directory so the default relative paths
// (templates/, data/templates.json) resolve inside it.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	return dir
}

func writeManifest(t *testing.T, category, slug string, fields map[string]interface{}) {
	t.Helper()
	dir := filepath.Join("templates", category, slug)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "template.json"), data, 0o644))
}

func sampleTree(t *testing.T) {
	t.Helper()
	writeManifest(t, "restaurant", "bistro", map[string]interface{}{
		"id": "bistro", "name": "Bistro", "category": "restaurant", "featured": true,
		"description": "Online booking", "techStack": []string{"Next.js"},
	})
	writeManifest(t, "retail", "shop", map[string]interface{}{
		"id": "shop", "name": "Shop", "category": "retail",
		"description": "Storefront", "techStack": []string{"Astro"},
	})
}

func ids(templates []types.Template) []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.ID)
	}
	return out
}

func TestBuildCommand(t *testing.T) {
	workspace(t)
	sampleTree(t)
	require.NoError(t, os.MkdirAll(filepath.Join("templates", "retail", "draft"), 0o755))

	out, err := execute(t, "build")
	require.NoError(t, err)

	assert.Contains(t, out, "Restaurant: 1 template\n")
	assert.Contains(t, out, "Retail: 1 template\n")
	assert.Contains(t, out, "Found 2 templates across 2 categories")
	assert.Contains(t, out, "MANIFEST_MISSING")
	assert.Contains(t, out, "Catalog written to data/templates.json")
	assert.FileExists(t, filepath.Join("data", "templates.json"))
}

func TestBuildCommandDuplicates(t *testing.T) {
	workspace(t)
	sampleTree(t)
	writeManifest(t, "retail", "shop-copy", map[string]interface{}{
		"id": "shop", "name": "Shop Copy", "category": "retail",
	})

	out, err := execute(t, "build")
	require.Error(t, err)
	assert.Contains(t, out, "DUPLICATE_ID")
	assert.NoFileExists(t, filepath.Join("data", "templates.json"))

	out, err = execute(t, "build", "--duplicates", "last-wins")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 templates")

	_, err = execute(t, "build", "--duplicates", "sometimes")
	assert.Error(t, err)
}

func TestBuildCommandDryRunAndFlagNormalization(t *testing.T) {
	workspace(t)
	sampleTree(t)

	out, err := execute(t, "build", "--dry_run", "--output", "out/catalog.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: out/catalog.json not written")
	assert.NoDirExists(t, "out")
}

func TestQueryCommands(t *testing.T) {
	workspace(t)
	sampleTree(t)
	_, err := execute(t, "build")
	require.NoError(t, err)

	t.Run("list recent", func(t *testing.T) {
		out, err := execute(t, "list", "-o", "json")
		require.NoError(t, err)
		var templates []types.Template
		require.NoError(t, json.Unmarshal([]byte(out), &templates))
		assert.Equal(t, []string{"shop", "bistro"}, ids(templates))
	})

	t.Run("list popular", func(t *testing.T) {
		out, err := execute(t, "list", "--sort", "popular", "-o", "json")
		require.NoError(t, err)
		var templates []types.Template
		require.NoError(t, json.Unmarshal([]byte(out), &templates))
		assert.Equal(t, []string{"bistro", "shop"}, ids(templates))
	})

	t.Run("list filters", func(t *testing.T) {
		out, err := execute(t, "list", "--tech", "astro")
		require.NoError(t, err)
		assert.Contains(t, out, "shop")
		assert.NotContains(t, out, "bistro")

		out, err = execute(t, "list", "-q", "nothing-matches")
		require.NoError(t, err)
		assert.Contains(t, out, "No templates found.")
	})

	t.Run("list bad sort", func(t *testing.T) {
		_, err := execute(t, "list", "--sort", "newest")
		assert.Error(t, err)
	})

	t.Run("show", func(t *testing.T) {
		out, err := execute(t, "show", "bistro")
		require.NoError(t, err)
		assert.Contains(t, out, "Bistro")
		assert.Contains(t, out, "restaurant (restaurant)")

		_, err = execute(t, "show", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `template "nope" not found`)
	})

	t.Run("categories", func(t *testing.T) {
		out, err := execute(t, "categories", "-o", "yaml")
		require.NoError(t, err)

		var node yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte(out), &node))
		mapping := node.Content[0]
		require.Len(t, mapping.Content, 4)
		assert.Equal(t, "restaurant", mapping.Content[0].Value)
		assert.Equal(t, "retail", mapping.Content[2].Value)
	})

	t.Run("stats", func(t *testing.T) {
		out, err := execute(t, "stats", "-o", "json")
		require.NoError(t, err)
		var stats query.Stats
		require.NoError(t, json.Unmarshal([]byte(out), &stats))
		assert.Equal(t, query.Stats{Total: 2, CategoryCount: 2, FeaturedCount: 1}, stats)

		out, err = execute(t, "stats")
		require.NoError(t, err)
		assert.Contains(t, out, "Templates:")
	})
}

func TestQueryCommandsWithoutCatalog(t *testing.T) {
	workspace(t)

	_, err := execute(t, "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CATALOG_UNREADABLE")
	assert.Contains(t, err.Error(), "tplcat build")
}

func TestNewCommand(t *testing.T) {
	workspace(t)

	out, err := execute(t, "new", "Real Estate", "homes", "--yes", "--featured", "--tech", "Next.js,Tailwind")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("templates", "real-estate", "homes", "template.json"))

	_, err = execute(t, "new", "Real Estate", "homes", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = execute(t, "new", "--yes")
	assert.Error(t, err)

	_, err = execute(t, "build")
	require.NoError(t, err)

	out, err = execute(t, "show", "homes", "-o", "json")
	require.NoError(t, err)
	var template types.Template
	require.NoError(t, json.Unmarshal([]byte(out), &template))
	assert.Equal(t, "Homes", template.Name)
	assert.True(t, template.Featured)
	assert.Equal(t, []string{"Next.js", "Tailwind"}, template.TechStack)
	assert.Equal(t, "real-estate", template.CategorySlug)
}

func TestConfigSources(t *testing.T) {
	workspace(t)
	writeManifest(t, "blog", "ink", map[string]interface{}{"id": "ink", "name": "Ink", "category": "blog"})
	require.NoError(t, os.Rename("templates", "site"))

	t.Run("environment", func(t *testing.T) {
		t.Setenv("TPLCAT_CATALOG_ROOT", "site")
		out, err := execute(t, "build")
		require.NoError(t, err)
		assert.Contains(t, out, "Found 1 template across 1 category")
	})

	t.Run("config file", func(t *testing.T) {
		require.NoError(t, os.WriteFile("custom.yml", []byte("catalog:\n  root: site\n  output: build/catalog.json\n"), 0o644))
		out, err := execute(t, "build", "--config", "custom.yml")
		require.NoError(t, err)
		assert.Contains(t, out, "Catalog written to build/catalog.json")
	})

	t.Run("dotenv", func(t *testing.T) {
		require.NoError(t, os.WriteFile(".env", []byte("TPLCAT_CATALOG_ROOT=site\nTPLCAT_CATALOG_OUTPUT=env/catalog.json\n"), 0o644))
		t.Cleanup(func() {
			os.Remove(".env")
			os.Unsetenv("TPLCAT_CATALOG_ROOT")
			os.Unsetenv("TPLCAT_CATALOG_OUTPUT")
		})
		out, err := execute(t, "build")
		require.NoError(t, err)
		assert.Contains(t, out, "Catalog written to env/catalog.json")
	})

	t.Run("flag beats environment", func(t *testing.T) {
		t.Setenv("TPLCAT_CATALOG_ROOT", "missing")
		_, err := execute(t, "build", "--root", "site", "--dry-run")
		require.NoError(t, err)
	})

	t.Run("invalid log level", func(t *testing.T) {
		_, err := execute(t, "build", "--log-level", "loud")
		assert.Error(t, err)
	})
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	out, err = execute(t, "version", "-o", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "tplcat "))
}

func TestChoiceFlag(t *testing.T) {
	c := newChoice("table", "table", "json")
	assert.NoError(t, c.Set(" JSON "))
	assert.Equal(t, "json", c.String())
	assert.EqualError(t, c.Set("xml"), "must be one of: table, json")
	assert.Equal(t, "json", c.String())
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Next.js", "Tailwind CSS"}, splitList(" Next.js, ,Tailwind CSS ,"))
	assert.Empty(t, splitList(""))
}

// chdir changes the working directory for the duration of the test,
// restoring the previous one on cleanup (equivalent to testing.T.Chdir).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
