package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/tplcat/internal/query"
	"github.com/conneroisu/tplcat/internal/types"
)

var (
	successMark = color.New(color.FgGreen).Sprint("✓")
	warningMark = color.New(color.FgYellow).Sprint("⚠")
	failureMark = color.New(color.FgRed).Sprint("✗")
	headerColor = color.New(color.Bold)
	featureTag  = color.New(color.FgYellow).Sprint("★")
)

// render writes v as JSON or YAML, or calls table for the table format
func render(w io.Writer, format string, v interface{}, table func(io.Writer) error) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return table(w)
	}
}

func newTable(w io.Writer, columns ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerColor.Sprint(strings.Join(columns, "\t")))
	return tw
}

func templatesTable(templates []types.Template) func(io.Writer) error {
	return func(w io.Writer) error {
		if len(templates) == 0 {
			fmt.Fprintln(w, "No templates found.")
			return nil
		}

		tw := newTable(w, "ID", "NAME", "CATEGORY", "FEATURED", "TECH STACK")
		for _, t := range templates {
			featured := ""
			if t.Featured {
				featured = featureTag
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				t.ID, t.Name, t.Category, featured, strings.Join(t.TechStack, ", "))
		}
		return tw.Flush()
	}
}

func templateDetail(t types.Template) func(io.Writer) error {
	return func(w io.Writer) error {
		title := t.Name
		if t.Featured {
			title += " " + featureTag
		}
		fmt.Fprintln(w, headerColor.Sprint(title))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		row := func(label, value string) {
			if value != "" {
				fmt.Fprintf(tw, "%s:\t%s\n", label, value)
			}
		}
		row("ID", t.ID)
		row("Category", fmt.Sprintf("%s (%s)", t.Category, t.CategorySlug))
		row("Version", t.Version)
		row("Description", t.Description)
		row("Features", strings.Join(t.Features, ", "))
		row("Tech stack", strings.Join(t.TechStack, ", "))
		row("Pages", strings.Join(t.Pages, ", "))
		row("Colors", strings.Join([]string{t.Colors.Primary, t.Colors.Secondary, t.Colors.Accent}, " "))
		if t.Preview != nil {
			row("Thumbnail", t.Preview.Thumbnail)
			row("Demo", t.Preview.DemoURL)
		}
		row("Path", t.Path)
		return tw.Flush()
	}
}

func categoriesTable(categories types.Categories) func(io.Writer) error {
	return func(w io.Writer) error {
		if categories.Len() == 0 {
			fmt.Fprintln(w, "No categories found.")
			return nil
		}

		tw := newTable(w, "KEY", "SLUG", "NAME", "COUNT")
		categories.Each(func(label string, c types.Category) bool {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", label, c.Slug, c.Name, c.Count)
			return true
		})
		return tw.Flush()
	}
}

func statsTable(stats query.Stats) func(io.Writer) error {
	return func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Templates:\t%d\n", stats.Total)
		fmt.Fprintf(tw, "Categories:\t%d\n", stats.CategoryCount)
		fmt.Fprintf(tw, "Featured:\t%d\n", stats.FeaturedCount)
		return tw.Flush()
	}
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
