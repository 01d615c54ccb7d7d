// Package watchhost is a reference build-watch host. It watches source
// directories, runs the configured bundler command on changes, and delivers
// the compile / after-emit / done event cycle to registered plugins.
//
// Events for one host are always delivered sequentially from the watch
// loop's goroutine, matching the contract plugins rely on.
package watchhost

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bundlekit/bundlekit/internal/hostbus"
	"github.com/bundlekit/bundlekit/internal/logging"
	"github.com/bundlekit/bundlekit/internal/project"
)

// Status describes one watch-loop phase change, for UIs that want to render
// progress without scraping log lines.
type Status struct {
	Kind   string // "building", "built", "failed", "watching"
	Detail string
	Err    error
	At     time.Time
}

// Options configures a Host.
type Options struct {
	// Root anchors all relative paths below.
	Root *project.Root
	// WatchDirs are the source directories to watch, relative to the root.
	WatchDirs []string
	// OutDir is the bundler output directory, relative to the root. It is
	// scanned after each build to produce the emitted artifact set.
	OutDir string
	// BuildCommand is the bundler invocation, argv style.
	BuildCommand []string
	// Debounce coalesces bursts of file events into one rebuild.
	// Defaults to 300ms.
	Debounce time.Duration
	// Log receives host output. Defaults to a stderr logger.
	Log *logging.Logger
	// OnStatus, when set, receives phase changes.
	OnStatus func(Status)
}

// Host runs the watch loop and owns the plugin bus.
type Host struct {
	opts Options
	bus  *hostbus.Bus
	log  *logging.Logger
}

// New validates options and creates a Host.
func New(opts Options) (*Host, error) {
	if opts.Root == nil {
		return nil, errors.New("watchhost: project root is required")
	}
	if len(opts.BuildCommand) == 0 {
		return nil, errors.New("watchhost: build command is required")
	}
	if opts.OutDir == "" {
		return nil, errors.New("watchhost: output directory is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	log := opts.Log
	if log == nil {
		log = logging.New("[watch]", nil)
	}
	return &Host{opts: opts, bus: hostbus.NewBus(), log: log}, nil
}

// Bus returns the plugin registration surface of this host.
func (h *Host) Bus() *hostbus.Bus { return h.bus }

// Use registers a plugin on the host bus.
func (h *Host) Use(p hostbus.Plugin) { p.Apply(h.bus) }

// BuildOnce runs one full build cycle: compile event, bundler command,
// artifact scan, after-emit, and done on success. A failed build still
// returns its error but fires no after-emit or done, so plugins keep
// whatever child they had running.
func (h *Host) BuildOnce(ctx context.Context) error {
	h.bus.EmitCompile()
	h.notify(Status{Kind: "building", At: time.Now()})

	cmd := exec.CommandContext(ctx, h.opts.BuildCommand[0], h.opts.BuildCommand[1:]...)
	cmd.Dir = h.opts.Root.Dir()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		h.log.Error("Build failed: %v", err)
		h.notify(Status{Kind: "failed", Err: err, At: time.Now()})
		return fmt.Errorf("build command: %w", err)
	}

	artifacts, err := h.scanArtifacts()
	if err != nil {
		h.log.Error("Scanning output: %v", err)
		h.notify(Status{Kind: "failed", Err: err, At: time.Now()})
		return err
	}

	h.bus.EmitAfterEmit(artifacts)
	h.bus.EmitDone()
	h.notify(Status{Kind: "built", Detail: fmt.Sprintf("%d artifacts", artifacts.Len()), At: time.Now()})
	return nil
}

// Run builds once, then watches the source directories and rebuilds on
// changes until the context is canceled. Build failures are logged and the
// watch continues.
func (h *Host) Run(ctx context.Context) error {
	if err := h.BuildOnce(ctx); err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range h.opts.WatchDirs {
		if err := addRecursive(watcher, h.opts.Root.Path(dir)); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	h.log.Info("Watching %d directories", len(watcher.WatchList()))
	h.notify(Status{Kind: "watching", At: time.Now()})

	debounce := time.NewTimer(h.opts.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories need their own watch before the debounce
			// window closes, or files created inside them are missed.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}
			debounce.Reset(h.opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.log.Warn("Watcher error: %v", err)

		case <-debounce.C:
			if err := h.BuildOnce(ctx); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}
}

// scanArtifacts walks the output directory and records every file as an
// artifact. Walk order is lexical, so artifact insertion order is stable
// across builds; the artifact name is the path relative to the output
// directory.
func (h *Host) scanArtifacts() (*hostbus.Artifacts, error) {
	outDir := h.opts.Root.Path(h.opts.OutDir)
	artifacts := hostbus.NewArtifacts()

	err := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name, err := filepath.Rel(outDir, path)
		if err != nil {
			return err
		}
		artifacts.Add(filepath.ToSlash(name), path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", h.opts.OutDir, err)
	}
	return artifacts, nil
}

func (h *Host) notify(s Status) {
	if h.opts.OnStatus != nil {
		h.opts.OnStatus(s)
	}
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
