package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/conneroisu/tplcat/internal/catalog"
	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/errors"
	"github.com/conneroisu/tplcat/internal/types"
)

// InitService handles template scaffolding business logic
type InitService struct {
	config *config.Config
}

// NewInitService creates a new scaffolding service
func NewInitService(cfg *config.Config) *InitService {
	return &InitService{config: cfg}
}

// InitOptions describes the template to create
type InitOptions struct {
	// Category is the free-text label; its slug names the category directory
	Category string
	// Slug names the template directory and is the default id
	Slug        string
	ID          string
	Name        string
	Description string
	Featured    bool
	TechStack   []string
	// Force overwrites an existing manifest
	Force bool
}

// InitResult reports what was created
type InitResult struct {
	Dir          string
	ManifestPath string
	Template     types.Template
}

// InitTemplate creates <root>/<category slug>/<slug>/ with a starter
// manifest that the builder accepts as is.
func (s *InitService) InitTemplate(opts InitOptions) (*InitResult, error) {
	template, err := s.starterTemplate(opts)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.config.Catalog.Root, template.CategorySlug, opts.Slug)
	manifestPath := filepath.Join(dir, s.config.Catalog.Manifest)

	if _, err := os.Stat(manifestPath); err == nil && !opts.Force {
		return nil, errors.NewValidationError(errors.CodeManifestInvalid,
			"manifest already exists (use --force to overwrite)", nil).WithPath(manifestPath)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewIOError(errors.CodeOutputUnwritable, "cannot create template directory", err).WithPath(dir)
	}

	data, err := json.MarshalIndent(manifestDocument(template), "", "  ")
	if err != nil {
		return nil, errors.NewInternalError(errors.CodeOutputUnwritable, "cannot encode manifest", err)
	}
	data = append(data, '\n')

	if err := atomic.WriteFile(manifestPath, bytes.NewReader(data)); err != nil {
		return nil, errors.NewIOError(errors.CodeOutputUnwritable, "cannot write manifest", err).WithPath(manifestPath)
	}
	if err := os.Chmod(manifestPath, 0o644); err != nil {
		return nil, errors.NewIOError(errors.CodeOutputUnwritable, "cannot set manifest permissions", err).WithPath(manifestPath)
	}

	return &InitResult{Dir: dir, ManifestPath: manifestPath, Template: template}, nil
}

func (s *InitService) starterTemplate(opts InitOptions) (types.Template, error) {
	category := strings.TrimSpace(opts.Category)
	if category == "" {
		return types.Template{}, errors.NewValidationError(errors.CodeManifestInvalid, "category is required", nil)
	}
	categorySlug := catalog.Slugify(category)
	if categorySlug == "" {
		return types.Template{}, errors.NewValidationError(errors.CodeManifestInvalid,
			fmt.Sprintf("category %q has no letters or digits", category), nil)
	}

	if opts.Slug == "" || catalog.Slugify(opts.Slug) != opts.Slug {
		return types.Template{}, errors.NewValidationError(errors.CodeManifestInvalid,
			fmt.Sprintf("slug %q must be lower-case letters, digits and dashes", opts.Slug), nil)
	}

	id := opts.ID
	if id == "" {
		id = opts.Slug
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = titleFromSlug(opts.Slug)
	}
	techStack := opts.TechStack
	if techStack == nil {
		techStack = []string{}
	}

	return types.Template{
		ID:           id,
		Name:         name,
		Category:     category,
		CategorySlug: categorySlug,
		Description:  opts.Description,
		Version:      "1.0.0",
		Featured:     opts.Featured,
		Features:     []string{},
		TechStack:    techStack,
		Colors: types.Colors{
			Primary:   "#1f2937",
			Secondary: "#f9fafb",
			Accent:    "#2563eb",
		},
		Pages: []string{"Home"},
		Path:  filepath.ToSlash(filepath.Join(filepath.Base(s.config.Catalog.Root), categorySlug, opts.Slug)),
	}, nil
}

// starterManifest is the on-disk manifest. It leaves out path and
// categorySlug, which the builder derives from the directory.
type starterManifest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Featured    bool           `json:"featured"`
	Preview     *types.Preview `json:"preview,omitempty"`
	Features    []string       `json:"features"`
	TechStack   []string       `json:"techStack"`
	Colors      types.Colors   `json:"colors"`
	Pages       []string       `json:"pages"`
}

func manifestDocument(t types.Template) starterManifest {
	return starterManifest{
		ID:          t.ID,
		Name:        t.Name,
		Category:    t.Category,
		Description: t.Description,
		Version:     t.Version,
		Featured:    t.Featured,
		Preview:     t.Preview,
		Features:    t.Features,
		TechStack:   t.TechStack,
		Colors:      t.Colors,
		Pages:       t.Pages,
	}
}

func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		words[i] = catalog.Capitalize(w)
	}
	return strings.Join(words, " ")
}
