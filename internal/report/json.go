package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/namescan/internal/model"
)

// jsonReport is the JSON document shape: a summary envelope around the
// verdict list.
type jsonReport struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Total       int             `json:"total"`
	Claimed     int             `json:"claimed"`
	Verdicts    []model.Verdict `json:"verdicts"`
}

// JSONWriter serializes a run for tool integration.
type JSONWriter struct {
	baseWriter

	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented JSON output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the verdicts as one JSON document.
func (w *JSONWriter) Write(verdicts []model.Verdict) (int, error) {
	doc := jsonReport{
		GeneratedAt: time.Now().UTC(),
		Total:       len(verdicts),
		Claimed:     len(claimedOf(verdicts)),
		Verdicts:    verdicts,
	}

	counter := &countingWriter{w: w.output}
	enc := json.NewEncoder(counter)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	err := enc.Encode(doc)
	return counter.n, err
}
