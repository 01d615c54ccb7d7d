// Package logging provides the tagged, category-colored terminal logger used
// by the build plugins and the watch host. Library packages return errors
// instead of logging; this logger exists for the interactive surfaces only.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Category classifies a log line and selects its color.
type Category int

const (
	Info Category = iota
	Warn
	Error
	Success
)

var categoryStyles = map[Category]lipgloss.Style{
	Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
	Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
}

var tagStyle = lipgloss.NewStyle().Bold(true)

// Logger writes tagged, colorized lines to a single writer. An empty message
// emits a bare blank line with no tag, used as a visual separator between
// lifecycle transitions.
type Logger struct {
	mu  sync.Mutex
	tag string
	out io.Writer
}

// New creates a logger that prefixes every non-empty line with tag. A nil
// writer defaults to stderr.
func New(tag string, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{tag: tag, out: out}
}

// Tag returns the identity prefix of this logger.
func (l *Logger) Tag() string { return l.tag }

// Info logs an informational line. Info("") prints a blank separator line.
func (l *Logger) Info(format string, args ...any) { l.log(Info, format, args...) }

// Warn logs a warning line.
func (l *Logger) Warn(format string, args ...any) { l.log(Warn, format, args...) }

// Error logs an error line.
func (l *Logger) Error(format string, args ...any) { l.log(Error, format, args...) }

// Success logs a success line.
func (l *Logger) Success(format string, args ...any) { l.log(Success, format, args...) }

func (l *Logger) log(cat Category, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if format == "" {
		fmt.Fprintln(l.out)
		return
	}

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s\n", tagStyle.Render(l.tag), categoryStyles[cat].Render(msg))
}
