package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/tplcat/internal/services"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Build the catalog and serve it over HTTP",
	Long: `Build the catalog, then serve the JSON API, the browse page and a
websocket that tells open pages to reload after every rebuild.

If the build fails, the last catalog written is served instead.

Routes:
  GET /                          Browse page (?category=&q=&sort=)
  GET /api/templates             ?category=&q=&sort=&tech=&featured=
  GET /api/templates/{id}
  GET /api/featured
  GET /api/categories
  GET /api/categories/{slug}
  GET /api/stats
  GET /healthz
  GET /ws

Examples:
  tplcat serve                          # http://localhost:3000
  tplcat serve --port 8080 --watch      # Rebuild when templates change`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("host", "", "Host to bind to (default localhost)")
	flags.IntP("port", "p", 0, "Port to serve on (default 3000)")
	flags.BoolP("watch", "w", false, "Rebuild and reload when templates change")
	flags.StringSlice("allowed-origins", nil, "Origins allowed to call the API and open the websocket")
	flags.String("root", "", "Templates root directory (default templates)")

	bindConfigFlag(flags, "host", "server.host")
	bindConfigFlag(flags, "port", "server.port")
	bindConfigFlag(flags, "watch", "server.watch")
	bindConfigFlag(flags, "allowed-origins", "server.allowed_origins")
	bindConfigFlag(flags, "root", "catalog.root")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	service := services.NewServeService(cfg, newLogger(cmd, cfg))

	_, err = service.Serve(cmd.Context(), services.ServeOptions{
		Watch: cfg.Server.Watch,
		Ready: func(url string) {
			fmt.Fprintf(out, "%s Serving catalog at %s\n", successMark, url)
			if cfg.Server.Watch {
				fmt.Fprintf(out, "  Watching %s for changes\n", cfg.Catalog.Root)
			}
		},
	})
	return err
}
