package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bundlekit/bundlekit/internal/externals"
)

// externalsFlags holds command-line flags for the externals command.
type externalsFlags struct {
	IncludeDev bool
	Extras     map[string]string
	Defaults   []string
	Ignore     []string
}

func newExternalsCommand() *cobra.Command {
	flags := &externalsFlags{}

	cmd := &cobra.Command{
		Use:   "externals",
		Short: "Derive the bundler externals map from package.json",
		Long: `Externals reads the dependency manifest at the project root and prints the
externals map as JSON: every dependency name mapped to "commonjs <name>",
minus the ignore list, with extras layered on top.

Examples:
  bundlekit externals
  bundlekit externals --dev
  bundlekit externals --extra sharp=./vendor/sharp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExternals(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.IncludeDev, "dev", false, "Also externalize devDependencies")
	cmd.Flags().StringToStringVar(&flags.Extras, "extra", nil, "Extra entry as name=path; bypasses the ignore list (repeatable)")
	cmd.Flags().StringSliceVar(&flags.Defaults, "default", nil, "Replace the built-in default externals list")
	cmd.Flags().StringSliceVar(&flags.Ignore, "ignore", nil, "Replace the built-in ignore list")

	return cmd
}

func runExternals(cmd *cobra.Command, flags *externalsFlags) error {
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}

	opts := externals.Options{
		Extras:     flags.Extras,
		IncludeDev: flags.IncludeDev,
	}
	// nil keeps the built-in defaults; an explicitly passed empty list
	// disables them.
	if cmd.Flags().Changed("default") {
		opts.Defaults = flags.Defaults
		if opts.Defaults == nil {
			opts.Defaults = []string{}
		}
	}
	if cmd.Flags().Changed("ignore") {
		opts.Ignore = flags.Ignore
		if opts.Ignore == nil {
			opts.Ignore = []string{}
		}
	}

	result, err := externals.Resolve(root, opts)
	if err != nil {
		return fmt.Errorf("resolving externals: %w", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding externals: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
