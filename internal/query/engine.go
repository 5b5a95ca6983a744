// Package query answers read-only questions about a loaded catalog.
//
// An Engine is an immutable snapshot: it copies the document it is built
// from, every method is safe for concurrent use, and every returned slice is
// freshly allocated so callers may modify it freely.
package query

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/conneroisu/tplcat/internal/catalog"
	"github.com/conneroisu/tplcat/internal/types"
)

// Stats summarises a catalog.
type Stats struct {
	Total         int `json:"total" yaml:"total"`
	CategoryCount int `json:"categories" yaml:"categories"`
	FeaturedCount int `json:"featured" yaml:"featured"`
}

// Engine serves queries over one catalog snapshot.
type Engine struct {
	generatedAt time.Time
	total       int
	templates   []types.Template
	categories  types.Categories
}

// New builds an engine over a copy of doc. A nil doc gives an empty engine.
func New(doc *types.Catalog) *Engine {
	if doc == nil {
		return &Engine{categories: types.NewCategories()}
	}

	templates := make([]types.Template, len(doc.Templates))
	for i, t := range doc.Templates {
		templates[i] = cloneTemplate(t)
	}

	return &Engine{
		generatedAt: doc.GeneratedAt,
		total:       doc.TotalTemplates,
		templates:   templates,
		categories:  doc.Categories.Clone(),
	}
}

// Load reads the catalog document at path and builds an engine over it.
func Load(path string) (*Engine, error) {
	doc, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return New(doc), nil
}

// GeneratedAt is the build time recorded in the document.
func (e *Engine) GeneratedAt() time.Time {
	return e.generatedAt
}

// All returns every template in catalog order.
func (e *Engine) All() []types.Template {
	return e.collect(func(types.Template) bool { return true })
}

// Featured returns the featured templates in catalog order.
func (e *Engine) Featured() []types.Template {
	return e.collect(func(t types.Template) bool { return t.Featured })
}

// ByID returns the first template whose id is exactly id.
func (e *Engine) ByID(id string) (types.Template, bool) {
	for _, t := range e.templates {
		if t.ID == id {
			return cloneTemplate(t), true
		}
	}
	return types.Template{}, false
}

// ByCategory returns the templates whose category label or category slug
// equals category.
func (e *Engine) ByCategory(category string) []types.Template {
	return e.collect(func(t types.Template) bool {
		return t.Category == category || t.CategorySlug == category
	})
}

// Categories returns a copy of the category mapping in document order.
func (e *Engine) Categories() types.Categories {
	return e.categories.Clone()
}

// CategoryBySlug returns the first category summary, in mapping order,
// whose slug is slug.
func (e *Engine) CategoryBySlug(slug string) (types.Category, bool) {
	var (
		found types.Category
		ok    bool
	)
	e.categories.Each(func(_ string, c types.Category) bool {
		if c.Slug == slug {
			found, ok = c, true
			return false
		}
		return true
	})
	return found, ok
}

// Search returns the templates whose name, description or any feature
// contains query, ignoring case. An empty query matches every template.
func (e *Engine) Search(query string) []types.Template {
	return e.collect(searchPredicate(query))
}

// FilterByTechStack returns the templates with at least one techStack entry
// containing tech, ignoring case.
func (e *Engine) FilterByTechStack(tech string) []types.Template {
	return e.collect(techPredicate(tech))
}

// Stats returns the template, category and featured counts.
func (e *Engine) Stats() Stats {
	featured := 0
	for _, t := range e.templates {
		if t.Featured {
			featured++
		}
	}
	return Stats{
		Total:         e.total,
		CategoryCount: e.categories.Len(),
		FeaturedCount: featured,
	}
}

func (e *Engine) collect(keep func(types.Template) bool) []types.Template {
	out := make([]types.Template, 0, len(e.templates))
	for _, t := range e.templates {
		if keep(t) {
			out = append(out, cloneTemplate(t))
		}
	}
	return out
}

// searchPredicate builds the Search/Browse matcher. A cases.Caser is
// stateful, so every predicate owns one.
func searchPredicate(query string) func(types.Template) bool {
	if query == "" {
		return func(types.Template) bool { return true }
	}

	fold := cases.Fold()
	needle := fold.String(query)
	contains := func(s string) bool {
		return strings.Contains(fold.String(s), needle)
	}

	return func(t types.Template) bool {
		if contains(t.Name) || contains(t.Description) {
			return true
		}
		for _, feature := range t.Features {
			if contains(feature) {
				return true
			}
		}
		return false
	}
}

func techPredicate(tech string) func(types.Template) bool {
	fold := cases.Fold()
	needle := fold.String(tech)
	return func(t types.Template) bool {
		for _, entry := range t.TechStack {
			if strings.Contains(fold.String(entry), needle) {
				return true
			}
		}
		return false
	}
}

func cloneTemplate(t types.Template) types.Template {
	t.Features = cloneStrings(t.Features)
	t.TechStack = cloneStrings(t.TechStack)
	t.Pages = cloneStrings(t.Pages)
	if t.Preview != nil {
		preview := *t.Preview
		preview.Screenshots = cloneStrings(preview.Screenshots)
		t.Preview = &preview
	}
	return t
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
