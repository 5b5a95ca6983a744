// Package catalog turns scan results into a catalog document and persists
// it.
//
// Aggregate is a pure fold over the scanner's results: it partitions them
// into records and failures, applies the category mismatch and duplicate id
// policies, and groups the surviving records by category label in discovery
// order. Write and Load move the document to and from disk.
package catalog

import (
	"fmt"
	"time"

	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/errors"
	"github.com/conneroisu/tplcat/internal/scanner"
	"github.com/conneroisu/tplcat/internal/types"
)

// Options controls the policies applied by Aggregate.
type Options struct {
	// Duplicates is one of the config.Duplicates* policies
	Duplicates string
	// CategoryMismatch is one of the config.Mismatch* policies
	CategoryMismatch string
	// Now stamps generatedAt; defaults to time.Now
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Duplicates == "" {
		o.Duplicates = config.DuplicatesReject
	}
	if o.CategoryMismatch == "" {
		o.CategoryMismatch = config.MismatchWarn
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Aggregate builds the catalog document from scan results. Failed results
// are recorded in the report and excluded. The returned error is non-nil
// only when the duplicate policy rejects the build; the report is always
// returned.
func Aggregate(results []scanner.Result, opts Options) (*types.Catalog, *Report, error) {
	opts = opts.withDefaults()
	report := newReport(len(results))

	templates := make([]types.Template, 0, len(results))
	position := make(map[string]int)
	firstPath := make(map[string]string)
	var rejected *errors.CatalogError

	for _, result := range results {
		if !result.OK() {
			report.add(result.Err, failureSeverity(result.Err))
			continue
		}

		template := normalize(*result.Template)

		if slug := Slugify(template.Category); slug != template.CategorySlug {
			mismatch := errors.NewValidationError(errors.CodeCategoryMismatch,
				fmt.Sprintf("category %q slugifies to %q but the template lives in %q",
					template.Category, slug, template.CategorySlug), nil).
				WithPath(template.Path).
				WithContext("id", template.ID)

			switch opts.CategoryMismatch {
			case config.MismatchIgnore:
			case config.MismatchReject:
				report.add(mismatch, errors.ErrorSeverityError)
				continue
			default:
				report.add(mismatch, errors.ErrorSeverityWarning)
			}
		}

		pos, seen := position[template.ID]
		if !seen {
			position[template.ID] = len(templates)
			firstPath[template.ID] = template.Path
			templates = append(templates, template)
			continue
		}

		switch opts.Duplicates {
		case config.DuplicatesFirstWins:
			report.add(errors.NewDuplicateError(template.ID, firstPath[template.ID], template.Path, true),
				errors.ErrorSeverityWarning)
		case config.DuplicatesLastWins:
			report.add(errors.NewDuplicateError(template.ID, firstPath[template.ID], template.Path, true),
				errors.ErrorSeverityWarning)
			templates[pos] = template
		case config.DuplicatesKeep:
			report.add(errors.NewDuplicateError(template.ID, firstPath[template.ID], template.Path, true),
				errors.ErrorSeverityWarning)
			templates = append(templates, template)
		default:
			dup := errors.NewDuplicateError(template.ID, firstPath[template.ID], template.Path, false)
			report.add(dup, errors.ErrorSeverityFatal)
			if rejected == nil {
				rejected = dup
			}
		}
	}

	if rejected != nil {
		return nil, report, rejected
	}

	report.Included = len(templates)

	return &types.Catalog{
		GeneratedAt:    opts.Now().UTC().Truncate(time.Millisecond),
		TotalTemplates: len(templates),
		Categories:     Summarize(templates),
		Templates:      templates,
	}, report, nil
}

// Summarize groups templates by category label in first-seen order.
func Summarize(templates []types.Template) types.Categories {
	categories := types.NewCategories()
	for _, template := range templates {
		summary, ok := categories.Get(template.Category)
		if !ok {
			summary = types.Category{
				Slug: template.CategorySlug,
				Name: Capitalize(template.Category),
			}
		}
		summary.Count++
		summary.Templates = append(summary.Templates, template.ID)
		categories.Set(template.Category, summary)
	}
	return categories
}

func failureSeverity(err *errors.CatalogError) errors.ErrorSeverity {
	if err.Code == errors.CodeManifestMissing {
		return errors.ErrorSeverityWarning
	}
	return errors.ErrorSeverityError
}

// normalize replaces absent lists with empty ones so the document never
// carries null where consumers expect an array.
func normalize(t types.Template) types.Template {
	if t.Features == nil {
		t.Features = []string{}
	}
	if t.TechStack == nil {
		t.TechStack = []string{}
	}
	if t.Pages == nil {
		t.Pages = []string{}
	}
	if t.Preview != nil {
		preview := *t.Preview
		if preview.Screenshots == nil {
			preview.Screenshots = []string{}
		}
		t.Preview = &preview
	}
	return t
}
