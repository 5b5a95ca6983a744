package query

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/conneroisu/tplcat/internal/types"
)

// SortMode orders browse results.
type SortMode string

const (
	// SortRecent reverses catalog order, so the last discovered template
	// comes first.
	SortRecent SortMode = "recent"
	// SortPopular puts featured templates first, then orders by name.
	SortPopular SortMode = "popular"
)

// AllCategories disables the category filter.
const AllCategories = "all"

// ParseSortMode accepts "popular", "recent" or "" (recent).
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRecent:
		return SortRecent, nil
	case SortPopular:
		return SortPopular, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q (want %s or %s)", s, SortPopular, SortRecent)
	}
}

// Filter selects and orders templates for a browse view.
type Filter struct {
	// Category matches the category label exactly; "" or "all" disables it
	Category string
	// Query uses the same matching as Engine.Search
	Query string
	Sort  SortMode
	// Tech narrows to templates using a technology, as FilterByTechStack
	Tech string
	// FeaturedOnly drops templates that are not featured
	FeaturedOnly bool
}

// Browse applies the category filter, then the text query, then the
// optional tech and featured filters, and finally sorts.
func (e *Engine) Browse(f Filter) []types.Template {
	matchesQuery := searchPredicate(f.Query)

	var matchesTech func(types.Template) bool
	if f.Tech != "" {
		matchesTech = techPredicate(f.Tech)
	}

	results := e.collect(func(t types.Template) bool {
		if f.Category != "" && f.Category != AllCategories && t.Category != f.Category {
			return false
		}
		if !matchesQuery(t) {
			return false
		}
		if matchesTech != nil && !matchesTech(t) {
			return false
		}
		return !f.FeaturedOnly || t.Featured
	})

	switch f.Sort {
	case SortPopular:
		sortPopular(results)
	default:
		reverse(results)
	}

	return results
}

// sortPopular orders featured templates first, then by name using the root
// locale's collation. Ties keep their relative order.
func sortPopular(templates []types.Template) {
	collator := collate.New(language.Und)
	sort.SliceStable(templates, func(i, j int) bool {
		a, b := templates[i], templates[j]
		if a.Featured != b.Featured {
			return a.Featured
		}
		return collator.CompareString(a.Name, b.Name) < 0
	})
}

func reverse(templates []types.Template) {
	for i, j := 0, len(templates)-1; i < j; i, j = i+1, j-1 {
		templates[i], templates[j] = templates[j], templates[i]
	}
}
