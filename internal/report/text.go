package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/namescan/internal/model"
)

// TextWriter outputs a human-readable run summary: the claimed profile
// URLs grouped by identifier, then the totals. Plain ASCII, safe to
// pipe.
type TextWriter struct {
	baseWriter

	// showAll includes Available and Unknown verdicts too.
	showAll bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithAllVerdicts includes non-claimed verdicts in the output.
func WithAllVerdicts() TextWriterOption {
	return func(w *TextWriter) {
		w.showAll = true
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *TextWriter) Write(verdicts []model.Verdict) (int, error) {
	var sb strings.Builder

	shown := verdicts
	if !w.showAll {
		shown = claimedOf(verdicts)
	}

	var lastIdentifier string
	for _, v := range shown {
		if v.Identifier.Value != lastIdentifier {
			lastIdentifier = v.Identifier.Value
			fmt.Fprintf(&sb, "%s (%s)\n", v.Identifier.Value, v.Identifier.Kind)
		}
		switch v.Status {
		case model.StatusClaimed:
			fmt.Fprintf(&sb, "  [+] %s: %s\n", v.SiteName, v.URLUser)
		case model.StatusAvailable:
			fmt.Fprintf(&sb, "  [-] %s\n", v.SiteName)
		case model.StatusUnknown:
			fmt.Fprintf(&sb, "  [?] %s: %s\n", v.SiteName, v.Context)
		case model.StatusIllegal:
			fmt.Fprintf(&sb, "  [!] %s\n", v.SiteName)
		}
	}

	fmt.Fprintf(&sb, "Total: %d claimed out of %d checked\n",
		len(claimedOf(verdicts)), len(verdicts))

	return w.output.Write([]byte(sb.String()))
}
