package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conneroisu/tplcat/internal/catalog"
	"github.com/conneroisu/tplcat/internal/services"
)

var newCmd = &cobra.Command{
	Use:     "new [category] [slug]",
	Aliases: []string{"n"},
	Short:   "Scaffold a template directory with a starter manifest",
	Long: `Create <root>/<category>/<slug>/template.json with a manifest the builder
accepts as is. Missing values are asked for interactively; with --yes, or
when stdin is not a terminal, defaults are used and category and slug must
be given as arguments.

Examples:
  tplcat new                                      # Ask for everything
  tplcat new restaurant bistro --yes              # Defaults only
  tplcat new "Real Estate" homes --featured --tech Next.js,Tailwind`,
	Args: cobra.MaximumNArgs(2),
	RunE: runNew,
}

var newOpts struct {
	name        string
	id          string
	description string
	tech        []string
	featured    bool
	yes         bool
	force       bool
}

func init() {
	rootCmd.AddCommand(newCmd)

	flags := newCmd.Flags()
	flags.StringVar(&newOpts.name, "name", "", "Display name (default derived from the slug)")
	flags.StringVar(&newOpts.id, "id", "", "Template id (default the slug)")
	flags.StringVar(&newOpts.description, "description", "", "Short description")
	flags.StringSliceVar(&newOpts.tech, "tech", nil, "Tech stack entries, comma separated")
	flags.BoolVar(&newOpts.featured, "featured", false, "Mark the template as featured")
	flags.BoolVarP(&newOpts.yes, "yes", "y", false, "Do not prompt; use defaults for missing values")
	flags.BoolVar(&newOpts.force, "force", false, "Overwrite an existing manifest")
	flags.String("root", "", "Templates root directory (default templates)")

	bindConfigFlag(flags, "root", "catalog.root")
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := services.InitOptions{
		ID:          newOpts.id,
		Name:        newOpts.name,
		Description: newOpts.description,
		TechStack:   newOpts.tech,
		Featured:    newOpts.featured,
		Force:       newOpts.force,
	}
	if len(args) > 0 {
		opts.Category = args[0]
	}
	if len(args) > 1 {
		opts.Slug = args[1]
	}

	if !newOpts.yes && isInteractive() {
		if err := promptInitOptions(cmd, &opts); err != nil {
			return err
		}
	} else if opts.Category == "" || opts.Slug == "" {
		return fmt.Errorf("category and slug are required when not prompting")
	}

	result, err := services.NewInitService(cfg).InitTemplate(opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Created %s\n", successMark, result.ManifestPath)
	fmt.Fprintf(out, "  id: %s, category: %s\n", result.Template.ID, result.Template.Category)
	fmt.Fprintln(out, "Run `tplcat build` to add it to the catalog.")
	return nil
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// promptInitOptions asks for every value not given on the command line
func promptInitOptions(cmd *cobra.Command, opts *services.InitOptions) error {
	if opts.Category == "" {
		prompt := &survey.Input{
			Message: "Category:",
			Help:    "Free-text label, e.g. Restaurant or Real Estate. Its slug names the directory.",
		}
		if err := survey.AskOne(prompt, &opts.Category, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	if opts.Slug == "" {
		prompt := &survey.Input{
			Message: "Template slug:",
			Help:    "Directory name: lower-case letters, digits and dashes.",
		}
		if err := survey.AskOne(prompt, &opts.Slug, survey.WithValidator(survey.ComposeValidators(survey.Required, validateSlug))); err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("name") {
		prompt := &survey.Input{Message: "Display name:", Help: "Leave empty to derive it from the slug."}
		if err := survey.AskOne(prompt, &opts.Name); err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("description") {
		prompt := &survey.Input{Message: "Description:"}
		if err := survey.AskOne(prompt, &opts.Description); err != nil {
			return err
		}
	}

	if !cmd.Flags().Changed("tech") {
		var tech string
		prompt := &survey.Input{Message: "Tech stack (comma separated):"}
		if err := survey.AskOne(prompt, &tech); err != nil {
			return err
		}
		opts.TechStack = splitList(tech)
	}

	if !cmd.Flags().Changed("featured") {
		prompt := &survey.Confirm{Message: "Featured?", Default: false}
		if err := survey.AskOne(prompt, &opts.Featured); err != nil {
			return err
		}
	}

	return nil
}

func validateSlug(ans interface{}) error {
	s, _ := ans.(string)
	if catalog.Slugify(s) != s {
		return fmt.Errorf("use %q instead", catalog.Slugify(s))
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
