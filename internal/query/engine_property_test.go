//go:build property
// +build property

package query

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/tplcat/internal/catalog"
	"github.com/conneroisu/tplcat/internal/types"
)

var pairs = [][2]string{
	{"restaurant", "restaurant"},
	{"Restaurants", "restaurant"},
	{"retail", "retail"},
	{"Real Estate", "real-estate"},
	{"real-estate", "estate"},
}

func generatedEngine(picks []int, featured []bool) *Engine {
	templates := make([]types.Template, 0, len(picks))
	for i, pick := range picks {
		templates = append(templates, types.Template{
			ID:           fmt.Sprintf("t%d", i),
			Name:         fmt.Sprintf("Template %d", len(picks)-i),
			Category:     pairs[pick][0],
			CategorySlug: pairs[pick][1],
			Featured:     i < len(featured) && featured[i],
		})
	}
	return New(&types.Catalog{
		TotalTemplates: len(templates),
		Categories:     catalog.Summarize(templates),
		Templates:      templates,
	})
}

func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ByCategory is the union of label and slug matches", prop.ForAll(
		func(picks []int, featured []bool, probe int) bool {
			e := generatedEngine(picks, featured)
			key := pairs[probe][0]
			if probe%2 == 1 {
				key = pairs[probe][1]
			}

			want := make(map[string]bool)
			for _, tpl := range e.All() {
				if tpl.Category == key || tpl.CategorySlug == key {
					want[tpl.ID] = true
				}
			}

			got := e.ByCategory(key)
			if len(got) != len(want) {
				return false
			}
			for _, tpl := range got {
				if !want[tpl.ID] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(pairs)-1)),
		gen.SliceOf(gen.Bool()),
		gen.IntRange(0, len(pairs)-1),
	))

	properties.Property("stats agree with the query results", prop.ForAll(
		func(picks []int, featured []bool) bool {
			e := generatedEngine(picks, featured)
			stats := e.Stats()
			return stats.Total == len(e.All()) &&
				stats.FeaturedCount == len(e.Featured()) &&
				stats.CategoryCount == e.Categories().Len()
		},
		gen.SliceOf(gen.IntRange(0, len(pairs)-1)),
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("browse sorts are permutations of the filtered set", prop.ForAll(
		func(picks []int, featured []bool) bool {
			e := generatedEngine(picks, featured)
			popular := e.Browse(Filter{Sort: SortPopular})
			recent := e.Browse(Filter{Sort: SortRecent})
			if len(popular) != len(recent) || len(recent) != len(e.All()) {
				return false
			}

			seenNonFeatured := false
			for _, tpl := range popular {
				if !tpl.Featured {
					seenNonFeatured = true
				} else if seenNonFeatured {
					return false
				}
			}

			all := e.All()
			for i := range recent {
				if recent[i].ID != all[len(all)-1-i].ID {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, len(pairs)-1)),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
