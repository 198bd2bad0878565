package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nao1215/namescan/internal/model"
)

// csvHeader is the fixed column set. The response time is in seconds
// with millisecond precision.
var csvHeader = []string{
	"username", "name", "url_main", "url_user", "exists",
	"http_status", "response_time_s",
}

// CSVWriter serializes every verdict, one row per (identifier, site)
// pair, for spreadsheet processing.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs all verdicts in CSV format.
func (w *CSVWriter) Write(verdicts []model.Verdict) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(csvHeader); err != nil {
		return counter.n, err
	}
	for _, v := range verdicts {
		row := []string{
			v.Identifier.Value,
			v.SiteName,
			v.URLMain,
			v.URLUser,
			v.Status.String(),
			strconv.Itoa(v.HTTPStatus),
			strconv.FormatFloat(v.Elapsed.Seconds(), 'f', 3, 64),
		}
		if err := cw.Write(row); err != nil {
			return counter.n, err
		}
	}
	cw.Flush()
	return counter.n, cw.Error()
}

// countingWriter tracks bytes written through it.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
