package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/nao1215/namescan/internal/model"
)

// ConsoleSink streams verdicts to the terminal as they arrive. It
// satisfies the exploration driver's sink contract.
//
// Markers follow the usual scanner convention: [+] claimed, [-]
// available, [?] unknown, [!] illegal.
type ConsoleSink struct {
	output io.Writer

	// foundOnly suppresses everything except Claimed verdicts.
	foundOnly bool

	// skipErrors suppresses Unknown verdicts.
	skipErrors bool

	claimed *color.Color
	missing *color.Color
	failed  *color.Color

	// mu guards counters; the driver serializes sink calls, but the
	// counters are also read by Finish.
	mu    sync.Mutex
	found int
	total int
}

// ConsoleSinkOption configures a ConsoleSink.
type ConsoleSinkOption func(*ConsoleSink)

// WithFoundOnly prints only Claimed verdicts.
func WithFoundOnly() ConsoleSinkOption {
	return func(s *ConsoleSink) {
		s.foundOnly = true
	}
}

// WithSkipErrors suppresses Unknown verdicts.
func WithSkipErrors() ConsoleSinkOption {
	return func(s *ConsoleSink) {
		s.skipErrors = true
	}
}

// WithoutColor disables ANSI colors, for piped output.
func WithoutColor() ConsoleSinkOption {
	return func(s *ConsoleSink) {
		s.claimed.DisableColor()
		s.missing.DisableColor()
		s.failed.DisableColor()
	}
}

// NewConsoleSink creates a sink writing to output.
func NewConsoleSink(output io.Writer, opts ...ConsoleSinkOption) *ConsoleSink {
	s := &ConsoleSink{
		output:  output,
		claimed: color.New(color.FgGreen, color.Bold),
		missing: color.New(color.FgRed),
		failed:  color.New(color.FgYellow),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start announces the identifier whose round is beginning.
func (s *ConsoleSink) Start(id model.Identifier) {
	fmt.Fprintf(s.output, "Checking %s (%s) ...\n", id.Value, id.Kind)
}

// Update prints one verdict, honoring the configured filters.
func (s *ConsoleSink) Update(v model.Verdict) {
	s.mu.Lock()
	s.total++
	if v.Found() {
		s.found++
	}
	s.mu.Unlock()

	switch v.Status {
	case model.StatusClaimed:
		s.claimed.Fprintf(s.output, "[+] %s: %s\n", v.SiteName, v.URLUser)
	case model.StatusAvailable:
		if s.foundOnly {
			return
		}
		s.missing.Fprintf(s.output, "[-] %s: not found\n", v.SiteName)
	case model.StatusUnknown:
		if s.foundOnly || s.skipErrors {
			return
		}
		s.failed.Fprintf(s.output, "[?] %s: %s\n", v.SiteName, v.Context)
	case model.StatusIllegal:
		if s.foundOnly {
			return
		}
		fmt.Fprintf(s.output, "[!] %s: identifier not allowed\n", v.SiteName)
	}
}

// Finish prints the run summary.
func (s *ConsoleSink) Finish() {
	s.mu.Lock()
	found, total := s.found, s.total
	s.mu.Unlock()
	fmt.Fprintf(s.output, "Done: %d claimed out of %d checked\n", found, total)
}
