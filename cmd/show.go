package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one template",
	Long: `Show every field of the template with the given id.

Examples:
  tplcat show bistro
  tplcat show bistro -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

var showFormat *choice

func init() {
	rootCmd.AddCommand(showCmd)
	showFormat = addOutputFlag(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	engine, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	template, ok := engine.ByID(args[0])
	if !ok {
		return fmt.Errorf("template %q not found", args[0])
	}

	return render(cmd.OutOrStdout(), showFormat.String(), template, templateDetail(template))
}
