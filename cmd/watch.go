package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/services"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild the catalog whenever a manifest changes",
	Long: `Build the catalog once, then rebuild it after every burst of changes to
category directories, template directories or manifests. Stop with Ctrl+C.

Examples:
  tplcat watch
  tplcat watch --root site/templates --duplicates first-wins`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	flags := watchCmd.Flags()
	flags.String("root", "", "Templates root directory (default templates)")
	flags.String("output", "", "Catalog document to write (default data/templates.json)")
	flags.Var(newChoice(config.DuplicatesReject, config.ValidDuplicatePolicies()...), "duplicates",
		"Duplicate id policy (reject|first-wins|last-wins|keep)")

	bindConfigFlag(flags, "root", "catalog.root")
	bindConfigFlag(flags, "output", "catalog.output")
	bindConfigFlag(flags, "duplicates", "build.duplicates")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report := func(result *services.BuildResult, err error) {
		if result != nil && result.Report != nil {
			printIssues(out, result.Report.Issues())
		}
		if err != nil {
			fmt.Fprintf(out, "%s Build failed: %v\n", failureMark, err)
			return
		}
		printSummary(out, result.Catalog)
	}

	report(services.NewBuildService(cfg, logger).Build(ctx, services.BuildOptions{}))

	fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", cfg.Catalog.Root)
	return services.NewWatchService(cfg, logger).Watch(ctx, report)
}
