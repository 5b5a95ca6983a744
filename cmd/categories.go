package cmd

import (
	"github.com/spf13/cobra"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"cats"},
	Short:   "List catalog categories with their template counts",
	Args:    cobra.NoArgs,
	RunE:    runCategories,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog totals",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var (
	categoriesFormat *choice
	statsFormat      *choice
)

func init() {
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(statsCmd)

	categoriesFormat = addOutputFlag(categoriesCmd)
	statsFormat = addOutputFlag(statsCmd)
}

func runCategories(cmd *cobra.Command, args []string) error {
	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	categories := engine.Categories()
	return render(cmd.OutOrStdout(), categoriesFormat.String(), categories, categoriesTable(categories))
}

func runStats(cmd *cobra.Command, args []string) error {
	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	stats := engine.Stats()
	return render(cmd.OutOrStdout(), statsFormat.String(), stats, statsTable(stats))
}
