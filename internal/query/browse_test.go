package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/tplcat/internal/catalog"
	"github.com/conneroisu/tplcat/internal/types"
)

// twoTemplateCatalog is the smallest catalog where popular and recent
// ordering disagree.
func twoTemplateCatalog() *types.Catalog {
	templates := []types.Template{
		{ID: "a", Name: "Bistro", Category: "Restaurant", CategorySlug: "restaurant", Featured: true},
		{ID: "b", Name: "Shop", Category: "Retail", CategorySlug: "retail"},
	}
	return &types.Catalog{
		TotalTemplates: 2,
		Categories:     catalog.Summarize(templates),
		Templates:      templates,
	}
}

func TestTwoTemplateExample(t *testing.T) {
	e := New(twoTemplateCatalog())

	assert.Equal(t, Stats{Total: 2, CategoryCount: 2, FeaturedCount: 1}, e.Stats())
	assert.Equal(t, []string{"a", "b"}, ids(e.Browse(Filter{Category: AllCategories, Sort: SortPopular})))
	assert.Equal(t, []string{"b", "a"}, ids(e.Browse(Filter{Category: AllCategories, Sort: SortRecent})))
}

func TestBrowseDefaultsToRecent(t *testing.T) {
	e := New(sampleCatalog())
	assert.Equal(t, []string{"cafe", "homes", "shop", "bistro"}, ids(e.Browse(Filter{})))
}

func TestBrowsePopularOrdering(t *testing.T) {
	doc := sampleCatalog()
	doc.Templates = append(doc.Templates,
		types.Template{ID: "zen", Name: "Zen", Category: "spa", CategorySlug: "spa", Featured: true},
		types.Template{ID: "atelier", Name: "atelier", Category: "retail", CategorySlug: "retail"},
		types.Template{ID: "eclair", Name: "Éclair", Category: "restaurant", CategorySlug: "restaurant"},
	)
	e := New(doc)

	// featured first, then names in collation order: accents and case do
	// not push a name to the end
	assert.Equal(t,
		[]string{"bistro", "homes", "zen", "atelier", "cafe", "eclair", "shop"},
		ids(e.Browse(Filter{Sort: SortPopular})))
}

func TestBrowsePopularIsStable(t *testing.T) {
	templates := []types.Template{
		{ID: "first", Name: "Same", Category: "x", CategorySlug: "x"},
		{ID: "second", Name: "Same", Category: "x", CategorySlug: "x"},
		{ID: "third", Name: "Same", Category: "x", CategorySlug: "x"},
	}
	e := New(&types.Catalog{TotalTemplates: 3, Categories: catalog.Summarize(templates), Templates: templates})
	assert.Equal(t, []string{"first", "second", "third"}, ids(e.Browse(Filter{Sort: SortPopular})))
}

func TestBrowseFilters(t *testing.T) {
	e := New(sampleCatalog())

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"category label", Filter{Category: "restaurant", Sort: SortPopular}, []string{"bistro", "cafe"}},
		{"category is not matched by slug", Filter{Category: "real-estate"}, []string{}},
		{"all disables category", Filter{Category: "all", Sort: SortPopular}, []string{"bistro", "homes", "cafe", "shop"}},
		{"query intersects category", Filter{Category: "restaurant", Query: "coffee"}, []string{"cafe"}},
		{"query without category", Filter{Query: "MENU", Sort: SortPopular}, []string{"bistro", "cafe"}},
		{"tech", Filter{Tech: "next.JS", Sort: SortPopular}, []string{"bistro", "homes"}},
		{"featured only", Filter{FeaturedOnly: true}, []string{"homes", "bistro"}},
		{"empty result", Filter{Category: "retail", Query: "booking"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(e.Browse(tt.filter)))
		})
	}
}

func TestParseSortMode(t *testing.T) {
	mode, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortRecent, mode)

	mode, err = ParseSortMode(" Popular ")
	require.NoError(t, err)
	assert.Equal(t, SortPopular, mode)

	_, err = ParseSortMode("newest")
	assert.Error(t, err)
}
