package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bundlekit/bundlekit/internal/logging"
	"github.com/bundlekit/bundlekit/internal/supervisor"
	"github.com/bundlekit/bundlekit/internal/watchhost"
)

// watchFlags holds command-line flags for the watch command.
type watchFlags struct {
	WatchDirs []string
	OutDir    string
	Build     string
	Entry     string
	Debounce  time.Duration
	TUI       bool
}

func newWatchCommand() *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch sources, rebuild on changes, restart the emitted entry",
		Long: `Watch runs the bundler command whenever a source file changes and restarts
the emitted entry script after every completed build.

Examples:
  bundlekit watch --build "npx webpack --config webpack.config.js"
  bundlekit watch --watch src,shared --out dist --entry server.js
  bundlekit watch --build "npm run build" --tui`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, flags)
		},
	}

	cmd.Flags().StringSliceVar(&flags.WatchDirs, "watch", []string{"src"}, "Source directories to watch, relative to the project root")
	cmd.Flags().StringVar(&flags.OutDir, "out", "dist", "Bundler output directory, relative to the project root")
	cmd.Flags().StringVar(&flags.Build, "build", "", "Bundler command to run per rebuild")
	cmd.Flags().StringVar(&flags.Entry, "entry", "", "Artifact name to run; auto-selected from the build output when empty")
	cmd.Flags().DurationVar(&flags.Debounce, "debounce", 300*time.Millisecond, "Delay before rebuilding after a burst of file changes")
	cmd.Flags().BoolVar(&flags.TUI, "tui", false, "Render an interactive status view instead of plain log lines")

	_ = cmd.MarkFlagRequired("build")

	return cmd
}

func runWatch(cmd *cobra.Command, flags *watchFlags) error {
	root, err := projectRoot(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle shutdown gracefully
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	opts := watchhost.Options{
		Root:         root,
		WatchDirs:    flags.WatchDirs,
		OutDir:       flags.OutDir,
		BuildCommand: strings.Fields(flags.Build),
		Debounce:     flags.Debounce,
		Log:          logging.New("[watch]", cmd.ErrOrStderr()),
	}

	var statuses chan watchhost.Status
	if flags.TUI {
		statuses = make(chan watchhost.Status, 16)
		opts.OnStatus = func(s watchhost.Status) {
			select {
			case statuses <- s:
			default: // never block the build loop on a slow UI
			}
		}
	}

	host, err := watchhost.New(opts)
	if err != nil {
		return err
	}

	host.Use(supervisor.New(supervisor.Options{
		Entry: flags.Entry,
		Log:   logging.New("[RunOnBuild]", cmd.ErrOrStderr()),
	}))

	if !flags.TUI {
		if err := host.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- host.Run(ctx)
		close(statuses)
	}()

	program := tea.NewProgram(NewWatchModel(statuses, cancel))
	if _, err := program.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("watch ui failed: %w", err)
	}

	cancel()
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
