package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/errors"
	"github.com/conneroisu/tplcat/internal/services"
	"github.com/conneroisu/tplcat/internal/types"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Scan the template tree and write the catalog document",
	Long: `Scan every <root>/<category>/<template>/template.json manifest and write
the aggregated catalog document. Templates without a manifest are skipped
with a warning; malformed or invalid manifests are reported and skipped.

Duplicate ids are rejected by default and nothing is written. Use
--duplicates to keep the first, keep the last, or keep every copy.

Examples:
  tplcat build                              # templates/ -> data/templates.json
  tplcat build --root site/templates        # Scan another tree
  tplcat build --duplicates first-wins      # Keep the first of each duplicate id
  tplcat build --dry-run                    # Report without writing`,
	RunE: runBuild,
}

var buildDryRun bool

func init() {
	rootCmd.AddCommand(buildCmd)

	flags := buildCmd.Flags()
	flags.String("root", "", "Templates root directory (default templates)")
	flags.String("output", "", "Catalog document to write (default data/templates.json)")
	flags.String("manifest", "", "Manifest file name (default template.json)")
	flags.Var(newChoice(config.DuplicatesReject, config.ValidDuplicatePolicies()...), "duplicates",
		"Duplicate id policy (reject|first-wins|last-wins|keep)")
	flags.Var(newChoice(config.MismatchWarn, config.ValidMismatchPolicies()...), "category-mismatch",
		"Policy when a category does not match its directory (warn|ignore|reject)")
	flags.BoolVar(&buildDryRun, "dry-run", false, "Aggregate and report without writing the catalog")

	bindConfigFlag(flags, "root", "catalog.root")
	bindConfigFlag(flags, "output", "catalog.output")
	bindConfigFlag(flags, "manifest", "catalog.manifest")
	bindConfigFlag(flags, "duplicates", "build.duplicates")
	bindConfigFlag(flags, "category-mismatch", "build.category_mismatch")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scanning %s ...\n", cfg.Catalog.Root)

	service := services.NewBuildService(cfg, newLogger(cmd, cfg))
	result, err := service.Build(cmd.Context(), services.BuildOptions{DryRun: buildDryRun})
	if result != nil && result.Report != nil {
		printIssues(out, result.Report.Issues())
	}
	if err != nil {
		return err
	}

	printSummary(out, result.Catalog)

	switch {
	case result.Written:
		fmt.Fprintf(out, "%s Catalog written to %s\n", successMark, result.Output)
	case buildDryRun:
		fmt.Fprintf(out, "Dry run: %s not written\n", result.Output)
	}
	return nil
}

func printIssues(w io.Writer, issues []errors.Issue) {
	for _, issue := range issues {
		mark := failureMark
		if issue.Severity == errors.ErrorSeverityWarning {
			mark = warningMark
		}
		fmt.Fprintf(w, "%s %s\n", mark, issue.Err.Error())
	}
}

// printSummary prints one line per category and the totals
func printSummary(w io.Writer, doc *types.Catalog) {
	doc.Categories.Each(func(_ string, c types.Category) bool {
		fmt.Fprintf(w, "  %s: %s\n", c.Name, pluralize(c.Count, "template", "templates"))
		return true
	})
	fmt.Fprintf(w, "%s Found %s across %s\n", successMark,
		pluralize(doc.TotalTemplates, "template", "templates"),
		pluralize(doc.Categories.Len(), "category", "categories"))
}
