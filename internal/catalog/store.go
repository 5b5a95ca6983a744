package catalog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/conneroisu/tplcat/internal/errors"
	"github.com/conneroisu/tplcat/internal/types"
)

// Encode renders doc as two-space indented JSON with a trailing newline.
func Encode(doc *types.Catalog) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a catalog document.
func Decode(data []byte) (*types.Catalog, error) {
	var doc types.Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Write persists doc at path, creating the parent directory. The file is
// replaced atomically so readers never observe a partial catalog.
func Write(path string, doc *types.Catalog) error {
	data, err := Encode(doc)
	if err != nil {
		return errors.NewInternalError(errors.CodeOutputUnwritable, "cannot encode catalog", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewIOError(errors.CodeOutputUnwritable,
			"cannot create output directory", err).WithPath(filepath.Dir(path))
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return errors.NewIOError(errors.CodeOutputUnwritable, "cannot write catalog", err).WithPath(path)
	}

	// atomic keeps the mode of a file it replaces but creates new ones 0600
	if !existed {
		if err := os.Chmod(path, 0o644); err != nil {
			return errors.NewIOError(errors.CodeOutputUnwritable, "cannot set catalog permissions", err).WithPath(path)
		}
	}

	return nil
}

// Load reads the catalog document at path.
func Load(path string) (*types.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.CodeCatalogUnreadable, "cannot read catalog", err).WithPath(path)
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, errors.NewIOError(errors.CodeCatalogUnreadable, "cannot parse catalog", err).WithPath(path)
	}

	return doc, nil
}
