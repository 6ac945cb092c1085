package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/harness"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Prefix string // only print keys with this prefix
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective engine configuration",
		Long: `Print the configuration the engine would start with: the engine
defaults, overlaid by --settings and --set, then forced to local execution.
Nothing is started and the scratch directory is left untouched.

Examples:
  sqlharness config
  sqlharness config --prefix hive.metastore
  sqlharness config --set es.nodes=localhost:9200 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only print keys with this prefix")

	return cmd
}

func runConfig(opts *ConfigOptions, cmd *cobra.Command) error {
	settings, err := opts.loadSettings()
	if err != nil {
		return err
	}

	b := harness.NewOverrideBuilder()
	b.ScratchDir = opts.ScratchDir
	b.Driver = opts.Driver

	c, err := b.Build(conf.New(), settings)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build configuration", err)
	}
	if err := conf.Validate(c); err != nil {
		return WrapExitError(ExitFailure, "configuration is not valid for local execution", err)
	}

	selected := make(map[string]string)
	var lines []string
	c.Range(func(k, v string) bool {
		if strings.HasPrefix(k, opts.Prefix) {
			selected[k] = v
			lines = append(lines, k+"="+v)
		}
		return true
	})

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return out.Success(selected)
	}
	if len(lines) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching keys.")
		return nil
	}
	out.Rows(lines)
	return nil
}
