// Package supervisor implements the restart plugin: after every completed
// watch build it relaunches the emitted entry script as a forked child, and
// kills the previous child when the next build starts.
package supervisor

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bundlekit/bundlekit/internal/hostbus"
	"github.com/bundlekit/bundlekit/internal/logging"
	"github.com/bundlekit/bundlekit/internal/process"
)

// Process is the slice of a child-process handle the plugin needs.
type Process interface {
	Kill() error
	PID() int
}

// Launcher starts the selected entry. The default launches it under node;
// tests substitute fakes.
type Launcher interface {
	Launch(entryPath string) (Process, error)
}

// finishedScript matches emitted files that are runnable scripts;
// hotUpdate excludes incremental hot-update fragments from selection.
var (
	finishedScript = regexp.MustCompile(`\.js$`)
	hotUpdate      = regexp.MustCompile(`\.hot-update\.js$`)
)

// Options carries the optional arguments of New.
type Options struct {
	// Entry pins the artifact name to run. When empty the plugin selects one
	// from the emitted artifacts on the first after-emit.
	Entry string
	// Launcher starts the child process. Defaults to running the entry
	// under node.
	Launcher Launcher
	// Log receives the plugin's tagged output. Defaults to a stderr logger
	// tagged with the plugin identity.
	Log *logging.Logger
}

// RunOnBuild is one plugin instance. Entry resolution runs exactly once, on
// the first after-emit; afterwards compile kills the running child and done
// starts a new one.
//
// Killing does not wait for the child to exit before the next done may
// spawn a replacement. That window is part of the contract: the plugin
// issues fire-and-forget start/terminate commands and trusts the operating
// system, it never confirms death.
type RunOnBuild struct {
	entryName string
	entryPath string
	running   bool
	proc      Process
	resolved  bool

	launcher Launcher
	log      *logging.Logger
}

// New creates a RunOnBuild plugin.
func New(opts Options) *RunOnBuild {
	launcher := opts.Launcher
	if launcher == nil {
		launcher = nodeLauncher{}
	}
	log := opts.Log
	if log == nil {
		log = logging.New("[RunOnBuild]", nil)
	}
	return &RunOnBuild{
		entryName: opts.Entry,
		launcher:  launcher,
		log:       log,
	}
}

// Apply registers the plugin's handlers on the host bus.
func (p *RunOnBuild) Apply(bus *hostbus.Bus) {
	bus.RegisterAfterEmit(p.AfterEmit)
	bus.RegisterCompile(p.Compile)
	bus.RegisterDone(p.Done)
}

// Entry returns the resolved entry name, empty if resolution failed or has
// not happened yet.
func (p *RunOnBuild) Entry() string { return p.entryName }

// EntryPath returns the absolute on-disk path of the resolved entry.
func (p *RunOnBuild) EntryPath() string { return p.entryPath }

// AfterEmit resolves the entry from the emitted artifacts. It runs its
// selection logic only on the first call per instance and always invokes
// next exactly once, synchronously, so the host pipeline never blocks.
func (p *RunOnBuild) AfterEmit(artifacts *hostbus.Artifacts, next func()) {
	defer next()

	if p.resolved {
		return
	}
	p.resolved = true

	candidates := runnableArtifacts(artifacts)

	switch {
	case p.entryName != "":
		if _, ok := findArtifact(candidates, p.entryName); ok {
			p.log.Info("")
			p.log.Success("Using configured entry %q", p.entryName)
		} else {
			p.log.Info("")
			p.log.Error("Entry %q was not emitted by the build", p.entryName)
			p.log.Error("Available entries: %s", artifactNames(candidates))
			p.entryName = ""
		}

	case len(candidates) == 1:
		p.entryName = candidates[0].Name

	case len(candidates) > 1:
		p.entryName = candidates[0].Name
		p.log.Info("")
		p.log.Warn("Multiple entries emitted, running the first: %q", p.entryName)
		p.log.Warn("Available entries: %s", artifactNames(candidates))

	default:
		p.log.Info("")
		p.log.Warn("No runnable script was emitted; nothing will be started")
	}

	if p.entryName == "" {
		return
	}

	art, _ := findArtifact(candidates, p.entryName)
	abs, err := filepath.Abs(art.ExistsAt)
	if err != nil {
		abs = art.ExistsAt
	}
	p.entryPath = abs
	p.log.Success("Restarting %q on every completed build (%s)", p.entryName, p.entryPath)
}

// Compile is fired when a new build starts: kill the running child, if any,
// and discard its handle without waiting for the exit.
func (p *RunOnBuild) Compile() {
	if p.entryName == "" || !p.running || p.proc == nil {
		return
	}

	p.log.Info("")
	p.log.Info("Build started, stopping %q (pid %d)", p.entryName, p.proc.PID())
	if err := p.proc.Kill(); err != nil {
		p.log.Error("Failed to stop %q: %v", p.entryName, err)
	}
	p.proc = nil
	p.running = false
}

// Done is fired when a build completes: start the entry unless a child is
// already running.
func (p *RunOnBuild) Done() {
	if p.entryName == "" || p.running {
		return
	}

	proc, err := p.launcher.Launch(p.entryPath)
	if err != nil {
		p.log.Error("Failed to start %q: %v", p.entryName, err)
		return
	}
	p.proc = proc
	p.running = true
	p.log.Success("Started %q (pid %d)", p.entryName, proc.PID())
}

func runnableArtifacts(artifacts *hostbus.Artifacts) []hostbus.Artifact {
	var out []hostbus.Artifact
	for _, art := range artifacts.List() {
		if finishedScript.MatchString(art.ExistsAt) && !hotUpdate.MatchString(art.ExistsAt) {
			out = append(out, art)
		}
	}
	return out
}

func findArtifact(artifacts []hostbus.Artifact, name string) (hostbus.Artifact, bool) {
	for _, art := range artifacts {
		if art.Name == name {
			return art, true
		}
	}
	return hostbus.Artifact{}, false
}

func artifactNames(artifacts []hostbus.Artifact) string {
	names := make([]string, len(artifacts))
	for i, art := range artifacts {
		names[i] = art.Name
	}
	return strings.Join(names, ", ")
}

// nodeLauncher adapts process.NodeLauncher to the Launcher interface.
type nodeLauncher struct{}

func (nodeLauncher) Launch(entryPath string) (Process, error) {
	return process.NodeLauncher{}.Launch(entryPath)
}
