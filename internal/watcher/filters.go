package watcher

import (
	"os"
	"path/filepath"
	"strings"
)

// CatalogFilter accepts the paths below root whose changes can alter the
// catalog: category directories, template directories and the manifest file
// inside a template directory. Plain files outside template directories are
// rejected. Anything hidden is rejected, as the scanner
// skips it.
func CatalogFilter(root, manifest, hiddenPrefix string) FileFilter {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}

	return func(path string) bool {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return false
		}
		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return false
		}

		parts := strings.Split(filepath.ToSlash(rel), "/")
		for _, part := range parts {
			if hiddenPrefix != "" && strings.HasPrefix(part, hiddenPrefix) {
				return false
			}
		}

		switch len(parts) {
		case 1, 2:
			// removed entries can no longer be stat'ed and still count
			info, err := os.Stat(absPath)
			return err != nil || info.IsDir()
		case 3:
			return parts[2] == manifest
		default:
			return false
		}
	}
}

// NoEditorTempFilter rejects swap and backup files written by editors.
func NoEditorTempFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasSuffix(base, "~") &&
		!strings.HasSuffix(base, ".swp") &&
		!strings.HasSuffix(base, ".swx") &&
		!strings.HasPrefix(base, "#")
}
