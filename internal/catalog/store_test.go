package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tplcat/internal/errors"
	"github.com/conneroisu/tplcat/internal/scanner"
)

func TestWriteAndLoad(t *testing.T) {
	doc, _, err := Aggregate([]scanner.Result{
		ok("shop", "Shop", "retail", "retail"),
		ok("bistro", "Bistro", "restaurant", "restaurant"),
	}, Options{Now: fixedNow})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "data", "templates.json")
	require.NoError(t, Write(path, doc))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasSuffix(text, "}\n"))
	assert.Contains(t, text, "\n  \"generatedAt\": \"2026-03-14T09:26:53.589Z\"")
	assert.Less(t, strings.Index(text, `"retail": {`), strings.Index(text, `"restaurant": {`),
		"category keys keep first-seen order")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc.TotalTemplates, loaded.TotalTemplates)
	assert.Equal(t, doc.Templates, loaded.Templates)
	assert.Equal(t, []string{"retail", "restaurant"}, loaded.Categories.Keys())
	assert.True(t, doc.GeneratedAt.Equal(loaded.GeneratedAt))
}

func TestWriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.json")
	require.NoError(t, os.WriteFile(path, []byte("stale content that is longer than the catalog"), 0o640))

	doc, _, err := Aggregate(nil, Options{Now: fixedNow})
	require.NoError(t, err)
	require.NoError(t, Write(path, doc))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.TotalTemplates)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestWriteUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("a file, not a directory"), 0o644))

	doc, _, err := Aggregate(nil, Options{Now: fixedNow})
	require.NoError(t, err)

	err = Write(filepath.Join(blocker, "templates.json"), doc)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeOutputUnwritable))
	assert.False(t, errors.IsRecoverable(err))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "absent.json"))
	assert.True(t, errors.HasCode(err, errors.CodeCatalogUnreadable))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"templates": [`), 0o644))
	_, err = Load(bad)
	assert.True(t, errors.HasCode(err, errors.CodeCatalogUnreadable))
}
