// Package types provides the catalog data model shared by the builder, the
// query engine and the command line. It lives in its own package to avoid
// circular dependencies between scanner, catalog and query.
package types

import "time"

// Template is one catalog record, built from a single template manifest.
type Template struct {
	// ID is the unique key across the catalog
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
	// CategorySlug is the name of the category directory the manifest was found in
	CategorySlug string   `json:"categorySlug" yaml:"categorySlug"`
	Description  string   `json:"description" yaml:"description"`
	Version      string   `json:"version" yaml:"version"`
	Featured     bool     `json:"featured" yaml:"featured"`
	Preview      *Preview `json:"preview,omitempty" yaml:"preview,omitempty"`
	Features     []string `json:"features" yaml:"features"`
	TechStack    []string `json:"techStack" yaml:"techStack"`
	Colors       Colors   `json:"colors" yaml:"colors"`
	Pages        []string `json:"pages" yaml:"pages"`
	// Path records where the template was discovered, relative to the
	// parent of the scan root (e.g. "templates/restaurant/bistro")
	Path string `json:"path" yaml:"path"`
}

// Preview holds optional visual assets for a template.
type Preview struct {
	Thumbnail   string   `json:"thumbnail" yaml:"thumbnail"`
	Screenshots []string `json:"screenshots" yaml:"screenshots"`
	DemoURL     string   `json:"demoUrl" yaml:"demoUrl"`
}

// Colors is the template's three-color palette.
type Colors struct {
	Primary   string `json:"primary" yaml:"primary"`
	Secondary string `json:"secondary" yaml:"secondary"`
	Accent    string `json:"accent" yaml:"accent"`
}

// Category summarises the templates sharing one category label.
type Category struct {
	// Slug is the first categorySlug seen for this category
	Slug  string `json:"slug" yaml:"slug"`
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
	// Templates lists member ids in discovery order
	Templates []string `json:"templates" yaml:"templates"`
}

// Catalog is the root document written by the builder and read by the
// query engine.
type Catalog struct {
	GeneratedAt    time.Time  `json:"generatedAt" yaml:"generatedAt"`
	TotalTemplates int        `json:"totalTemplates" yaml:"totalTemplates"`
	Categories     Categories `json:"categories" yaml:"categories"`
	Templates      []Template `json:"templates" yaml:"templates"`
}
