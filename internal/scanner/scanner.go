// Package scanner provides template manifest discovery.
//
// Discovery is split into two stages so each can be tested on its own:
// Discover walks the two-level <category>/<template> directory tree and
// yields one Entry per template directory, and Load turns an Entry into a
// Result holding either the parsed template record or the reason it was
// skipped. Scan runs both stages and reports every outcome through the
// logger. Per-entry problems never abort a scan; only an unreadable root
// does.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conneroisu/tplcat/internal/errors"
	"github.com/conneroisu/tplcat/internal/logging"
	"github.com/conneroisu/tplcat/internal/types"
)

// Entry is one template directory found during traversal.
type Entry struct {
	// Category is the name of the category directory
	Category string
	// Slug is the name of the template directory
	Slug string
	// Dir is the template directory on disk
	Dir string
	// ManifestPath is where the manifest is expected
	ManifestPath string
	// Path is the slash-separated provenance recorded on the template
	Path string
	// Err is set when the entry stands for a category that could not be listed
	Err *errors.CatalogError
}

// Result is the outcome of loading one Entry. Exactly one of Template and
// Err is set.
type Result struct {
	Entry    Entry
	Template *types.Template
	Err      *errors.CatalogError
}

// OK reports whether the entry produced a template.
func (r Result) OK() bool {
	return r.Err == nil && r.Template != nil
}

// Options configures a Scanner.
type Options struct {
	// Manifest is the file name looked up in each template directory
	Manifest string
	// HiddenPrefix marks entries to skip at both levels
	HiddenPrefix string
	Logger       logging.Logger
}

// Scanner discovers template manifests below a root directory.
type Scanner struct {
	root         string
	manifest     string
	hiddenPrefix string
	logger       logging.Logger
}

// New creates a scanner for root.
func New(root string, opts Options) *Scanner {
	if opts.Manifest == "" {
		opts.Manifest = "template.json"
	}
	if opts.HiddenPrefix == "" {
		opts.HiddenPrefix = "."
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	return &Scanner{
		root:         filepath.Clean(root),
		manifest:     opts.Manifest,
		hiddenPrefix: opts.HiddenPrefix,
		logger:       opts.Logger.WithComponent("scanner"),
	}
}

// Root returns the directory being scanned.
func (s *Scanner) Root() string {
	return s.root
}

// Manifest returns the manifest file name.
func (s *Scanner) Manifest() string {
	return s.manifest
}

// Scan discovers and loads every template below the root, logging each
// outcome. The only error returned is an unreadable root.
func (s *Scanner) Scan(ctx context.Context) ([]Result, error) {
	entries, err := s.Discover()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		result := s.Load(entry)
		s.report(ctx, result)
		results = append(results, result)
	}

	return results, nil
}

// Discover walks root/<category>/<template> and returns the template
// directories in discovery order (lexical within each level). Entries that
// are not directories or whose name starts with the hidden prefix are
// skipped at both levels. A category directory that cannot be listed yields
// a single Entry carrying the error.
func (s *Scanner) Discover() ([]Entry, error) {
	categories, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.NewIOError(errors.CodeRootUnreadable,
			"cannot read templates directory", err).WithPath(s.root)
	}

	base := filepath.Base(s.root)
	var entries []Entry

	for _, category := range categories {
		categoryDir := filepath.Join(s.root, category.Name())
		if !s.visible(category.Name(), categoryDir) {
			continue
		}

		templates, err := os.ReadDir(categoryDir)
		if err != nil {
			entries = append(entries, Entry{
				Category: category.Name(),
				Dir:      categoryDir,
				Path:     path.Join(base, category.Name()),
				Err: errors.Wrap(err, errors.ErrorTypeIO, errors.CodeCategoryUnreadable,
					"cannot read category directory").WithPath(categoryDir),
			})
			continue
		}

		for _, template := range templates {
			templateDir := filepath.Join(categoryDir, template.Name())
			if !s.visible(template.Name(), templateDir) {
				continue
			}

			entries = append(entries, Entry{
				Category:     category.Name(),
				Slug:         template.Name(),
				Dir:          templateDir,
				ManifestPath: filepath.Join(templateDir, s.manifest),
				Path:         path.Join(base, category.Name(), template.Name()),
			})
		}
	}

	return entries, nil
}

// visible reports whether a directory entry takes part in discovery.
// Symlinks are followed, so a link to a directory counts as a directory.
func (s *Scanner) visible(name, fullPath string) bool {
	if strings.HasPrefix(name, s.hiddenPrefix) {
		return false
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Load reads and validates the manifest of entry. It has no side effects
// beyond reading the file.
func (s *Scanner) Load(entry Entry) Result {
	if entry.Err != nil {
		return Result{Entry: entry, Err: entry.Err}
	}

	data, err := os.ReadFile(entry.ManifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Entry: entry, Err: errors.NewMissingError(errors.CodeManifestMissing,
				fmt.Sprintf("missing %s", s.manifest)).WithPath(entry.Dir)}
		}
		return Result{Entry: entry, Err: errors.NewValidationError(errors.CodeManifestMalformed,
			"cannot read manifest", err).WithPath(entry.ManifestPath)}
	}

	template, err := ParseManifest(data)
	if err != nil {
		return Result{Entry: entry, Err: errors.NewValidationError(errors.CodeManifestMalformed,
			"cannot parse manifest", err).WithPath(entry.ManifestPath)}
	}

	if missing := missingFields(template); len(missing) > 0 {
		return Result{Entry: entry, Err: errors.NewValidationError(errors.CodeManifestInvalid,
			"manifest is missing required fields: "+strings.Join(missing, ", "), nil).
			WithPath(entry.ManifestPath).
			WithContext("fields", missing)}
	}

	// Directory-derived provenance always wins over the manifest's own values.
	template.Path = entry.Path
	template.CategorySlug = entry.Category

	return Result{Entry: entry, Template: template}
}

// ParseManifest decodes one manifest document.
func ParseManifest(data []byte) (*types.Template, error) {
	var template types.Template
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

func missingFields(t *types.Template) []string {
	var missing []string
	if strings.TrimSpace(t.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(t.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(t.Category) == "" {
		missing = append(missing, "category")
	}
	return missing
}

func (s *Scanner) report(ctx context.Context, r Result) {
	switch {
	case r.OK():
		s.logger.Info(ctx, "Discovered template",
			"name", r.Template.Name,
			"id", r.Template.ID,
			"path", r.Entry.Path)
	case r.Err.Code == errors.CodeManifestMissing:
		s.logger.Warn(ctx, nil, "Missing manifest", "dir", r.Entry.Dir)
	default:
		s.logger.Error(ctx, r.Err.Cause, "Skipping template",
			"code", r.Err.Code,
			"path", r.Err.Path,
			"reason", r.Err.Message)
	}
}
