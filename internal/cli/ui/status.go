package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// WriteSuccess writes a check-marked success line.
func WriteSuccess(w io.Writer, message string, noColor bool) {
	newColor(noColor, color.FgGreen, color.Bold).Fprintf(w, "✓ %s\n", message)
}

// WriteWarning writes a warning line.
func WriteWarning(w io.Writer, message string, noColor bool) {
	newColor(noColor, color.FgYellow).Fprintf(w, "⚠ %s\n", message)
}

// NotFound formats an unknown element error with the closest known paths.
//
//	✗ ELEMENT NOT FOUND: model::Persn
//
//	   Did you mean: model::Person?
func NotFound(path string, suggestions []string, noColor bool) string {
	var b strings.Builder
	newColor(noColor, color.FgRed, color.Bold).Fprintf(&b, "✗ ELEMENT NOT FOUND: %s\n", path)
	if len(suggestions) > 0 {
		b.WriteString("\n")
		newColor(noColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(suggestions, ", "))
	}
	return b.String()
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a message while an operation of unknown length runs.
type Spinner struct {
	writer   io.Writer
	message  string
	interval time.Duration
	noColor  bool

	started  atomic.Bool
	stopOnce sync.Once
	done     chan struct{}
	stopped  chan struct{}
}

// NewSpinner creates a spinner. It does not draw until Start.
func NewSpinner(w io.Writer, message string, noColor bool) *Spinner {
	return &Spinner{
		writer:   w,
		message:  message,
		interval: 100 * time.Millisecond,
		noColor:  noColor,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (s *Spinner) Start() {
	if s.started.CompareAndSwap(false, true) {
		go s.animate()
	}
}

// Stop stops the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	if !s.started.Load() {
		return
	}
	s.stopOnce.Do(func() {
		close(s.done)
		<-s.stopped
		fmt.Fprint(s.writer, "\r\033[K")
	})
}

func (s *Spinner) animate() {
	defer close(s.stopped)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	cyan := newColor(s.noColor, color.FgCyan)
	for i := 0; ; i = (i + 1) % len(spinnerFrames) {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			cyan.Fprintf(s.writer, "\r%s %s", spinnerFrames[i], s.message)
		}
	}
}

// WithSpinner runs fn behind a spinner and reports the outcome on w.
func WithSpinner(w io.Writer, message string, noColor bool, fn func() error) error {
	s := NewSpinner(w, message, noColor)
	s.Start()
	err := fn()
	s.Stop()

	if err != nil {
		newColor(noColor, color.FgRed, color.Bold).Fprintf(w, "✗ %s failed\n", message)
		return err
	}
	WriteSuccess(w, message, noColor)
	return nil
}
