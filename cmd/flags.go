package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKeyAnnotation marks a flag that overrides a configuration key
const configKeyAnnotation = "tplcat_config_key"

// normalizeFlagName lets --dry_run and --dry-run name the same flag
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// bindConfigFlag makes a flag, when set, override the configuration key
func bindConfigFlag(flags *pflag.FlagSet, name, key string) {
	if err := flags.SetAnnotation(name, configKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("binding flag %q: %v", name, err))
	}
}

// applyConfigFlags copies every changed flag bound with bindConfigFlag into v
func applyConfigFlags(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Visit(func(f *pflag.Flag) {
		keys := f.Annotations[configKeyAnnotation]
		if len(keys) == 0 {
			return
		}
		switch value := f.Value.(type) {
		case pflag.SliceValue:
			v.Set(keys[0], value.GetSlice())
		default:
			v.Set(keys[0], f.Value.String())
		}
	})
}

// choice is a string flag restricted to a fixed set of values
type choice struct {
	value   string
	allowed []string
}

func newChoice(value string, allowed ...string) *choice {
	return &choice{value: value, allowed: allowed}
}

func (c *choice) String() string { return c.value }

func (c *choice) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range c.allowed {
		if s == a {
			c.value = s
			return nil
		}
	}
	return fmt.Errorf("must be one of: %s", strings.Join(c.allowed, ", "))
}

func (c *choice) Type() string { return "string" }

// Output formats accepted by -o
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func addOutputFlag(cmd *cobra.Command) *choice {
	format := newChoice(formatTable, formatTable, formatJSON, formatYAML)
	cmd.Flags().VarP(format, "output", "o", "Output format (table|json|yaml)")
	return format
}
