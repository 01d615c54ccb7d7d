// Package process owns the forked child a build plugin runs and restarts.
// The contract is deliberately fire-and-forget: callers start a process,
// may request termination, and never wait for output or confirmed death.
package process

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// Handle is an owned child process. It is created running and transitions to
// not-running exactly once, when the monitor goroutine observes exit.
type Handle struct {
	cmd *exec.Cmd

	mu      sync.RWMutex
	running bool
	waitErr error
	done    chan struct{}
}

// Start launches the given command with stdout/stderr passed through to the
// current process and returns a handle owning it.
func Start(name string, args ...string) (*Handle, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}

	h := &Handle{
		cmd:     cmd,
		running: true,
		done:    make(chan struct{}),
	}
	go h.monitor()
	return h, nil
}

// PID returns the process ID, or -1 if the process never started.
func (h *Handle) PID() int {
	if h.cmd == nil || h.cmd.Process == nil {
		return -1
	}
	return h.cmd.Process.Pid
}

// IsRunning reports whether the process has been observed to exit yet.
func (h *Handle) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Kill requests termination with SIGTERM. It does not wait for the process
// to exit; the operating system is trusted to deliver the signal.
func (h *Handle) Kill() error {
	if h.cmd == nil || h.cmd.Process == nil {
		return fmt.Errorf("process not running")
	}
	return h.cmd.Process.Signal(syscall.SIGTERM)
}

// Wait blocks until the process exits and returns its wait error.
func (h *Handle) Wait() error {
	<-h.done
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.waitErr
}

func (h *Handle) monitor() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.running = false
	h.waitErr = err
	h.mu.Unlock()

	close(h.done)
}

// NodeLauncher starts Node.js programs. It is the default launcher of the
// restart plugin; tests substitute their own.
type NodeLauncher struct {
	// Command overrides the node executable name, e.g. for nvm shims.
	Command string
	// Args are inserted before the entry path, e.g. --inspect.
	Args []string
}

// Launch runs `node [args...] entryPath` and returns the owning handle.
func (n NodeLauncher) Launch(entryPath string) (*Handle, error) {
	command := n.Command
	if command == "" {
		command = "node"
	}
	return Start(command, append(append([]string{}, n.Args...), entryPath)...)
}
