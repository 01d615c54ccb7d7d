package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bundlekit/bundlekit/internal/configload"
)

// resolveFlags holds command-line flags for the resolve command.
type resolveFlags struct {
	Dir     string
	Target  string
	Type    string
	UseHash bool
	Variant string
	Params  []string
}

func newResolveCommand() *cobra.Command {
	flags := &resolveFlags{}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Load and merge a named build configuration",
		Long: `Resolve loads the configuration {target}.{type} from the config directory,
follows its extends chain, and prints the merged result as JSON.

Examples:
  bundlekit resolve --target app --type production
  bundlekit resolve --target app --type development --variant debug
  bundlekit resolve --target app --type production --use-hash --param mode=fast`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Dir, "dir", "config", "Directory holding the configuration files, relative to the project root")
	cmd.Flags().StringVar(&flags.Target, "target", "", "Target name, e.g. app or backend")
	cmd.Flags().StringVar(&flags.Type, "type", "", "Type qualifier, e.g. development or production")
	cmd.Flags().BoolVar(&flags.UseHash, "use-hash", false, "Inject a fresh build hash into the parameter bag")
	cmd.Flags().StringVar(&flags.Variant, "variant", "", "Select a named config variant instead of the default block")
	cmd.Flags().StringArrayVar(&flags.Params, "param", nil, "Extra parameter as key=value (repeatable)")

	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runResolve(cmd *cobra.Command, flags *resolveFlags) error {
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}

	params := make(map[string]any, len(flags.Params))
	for _, p := range flags.Params {
		key, value, found := strings.Cut(p, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid --param %q, expected key=value", p)
		}
		params[key] = value
	}

	cfg, err := configload.NewLoader(root).Load(flags.Dir, flags.Target, flags.Type, configload.Options{
		UseHash: flags.UseHash,
		Params:  params,
		Variant: flags.Variant,
	})
	if err != nil {
		return fmt.Errorf("resolving %s.%s: %w", flags.Target, flags.Type, err)
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
