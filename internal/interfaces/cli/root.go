package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bundlekit/bundlekit/internal/project"
)

// NewRootCommand builds the bundlekit command tree.
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bundlekit",
		Short: "Helpers for Node-based bundling workflows",
		Long: `bundlekit composes build configuration files with single-level extends
inheritance, derives a bundler externals map from package.json, and can watch
a project, rebuild it on changes, and restart the emitted entry script after
every completed build.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().String("root", "", "Project root directory (defaults to the working directory)")

	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newExternalsCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(version, commit, date string) {
	if err := NewRootCommand(version, commit, date).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// projectRoot resolves the --root persistent flag, defaulting to the
// working directory.
func projectRoot(cmd *cobra.Command) (*project.Root, error) {
	dir, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, err
	}
	if dir != "" {
		return project.New(dir), nil
	}
	return project.FromWorkingDir()
}
