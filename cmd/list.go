package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tplcat/internal/query"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l", "ls"},
	Short:   "List templates from the catalog",
	Long: `List the templates in the catalog document, optionally filtered and sorted
the same way the browse page does it.

Recent order is the reverse of discovery order. Popular order puts featured
templates first, then sorts by name.

Examples:
  tplcat list                              # Every template, most recent first
  tplcat list --category restaurant        # One category (label as written)
  tplcat list -q booking --sort popular    # Search name, description, features
  tplcat list --tech next.js --featured    # Featured templates using Next.js
  tplcat list -o json                      # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listFormat   *choice
	listCategory string
	listQuery    string
	listTech     string
	listSort     string
	listFeatured bool
)

func init() {
	rootCmd.AddCommand(listCmd)

	listFormat = addOutputFlag(listCmd)
	listCmd.Flags().StringVar(&listCategory, "category", "", `Category label to show ("all" for every category)`)
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "Case-insensitive search text")
	listCmd.Flags().StringVar(&listTech, "tech", "", "Only templates whose tech stack mentions this")
	listCmd.Flags().StringVarP(&listSort, "sort", "s", string(query.SortRecent), "Sort order (recent|popular)")
	listCmd.Flags().BoolVar(&listFeatured, "featured", false, "Only featured templates")
}

func runList(cmd *cobra.Command, args []string) error {
	sortMode, err := query.ParseSortMode(listSort)
	if err != nil {
		return err
	}

	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	templates := engine.Browse(query.Filter{
		Category:     listCategory,
		Query:        listQuery,
		Sort:         sortMode,
		Tech:         listTech,
		FeaturedOnly: listFeatured,
	})

	return render(cmd.OutOrStdout(), listFormat.String(), templates, templatesTable(templates))
}

// loadEngine loads the catalog document named by the configuration
func loadEngine(cmd *cobra.Command) (*query.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	engine, err := query.Load(cfg.Catalog.Output)
	if err != nil {
		return nil, fmt.Errorf("%w (run `tplcat build` first)", err)
	}
	return engine, nil
}
