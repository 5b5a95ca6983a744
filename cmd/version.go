package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tplcat/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the tplcat version, git commit, build time, Go version and
target platform.

Examples:
  tplcat version            # Detailed version
  tplcat version --short    # One line
  tplcat version -o json    # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersion,
}

var (
	versionFormat *choice
	versionShort  bool
)

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFormat = newChoice("text", "text", formatJSON, formatYAML)
	versionCmd.Flags().VarP(versionFormat, "output", "o", "Output format (text|json|yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersion(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if versionShort {
		fmt.Fprintln(out, version.GetShortVersion())
		return nil
	}

	return render(out, versionFormat.String(), version.GetBuildInfo(), func(w io.Writer) error {
		_, err := fmt.Fprintln(w, version.GetDetailedVersion())
		return err
	})
}
