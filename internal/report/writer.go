package report

import (
	"io"

	"github.com/nao1215/namescan/internal/model"
)

// Writer serializes a run's collected verdicts. Implementations cover
// CSV, JSON, plain text, and Markdown; destinations are plain
// io.Writers, so files, stdout, and buffers all work.
type Writer interface {
	// Write outputs the verdicts and returns the number of bytes
	// written.
	Write(verdicts []model.Verdict) (int, error)
}

// MultiWriter fans one run out to several Writers, for example a CSV
// file and a terminal summary at once. It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the verdicts to every configured Writer.
func (m *MultiWriter) Write(verdicts []model.Verdict) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(verdicts)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the shared output destination.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// claimedOf filters a run down to its Claimed verdicts.
func claimedOf(verdicts []model.Verdict) []model.Verdict {
	out := make([]model.Verdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Found() {
			out = append(out, v)
		}
	}
	return out
}
