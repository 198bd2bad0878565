package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/namescan/internal/model"
)

// MarkdownWriter outputs a run report in Markdown, for documentation
// and sharing. GitHub renders the embedded mermaid chart natively.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report.
func (w *MarkdownWriter) Write(verdicts []model.Verdict) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Identifier Scan Report")
	md.PlainText("")

	w.writeSummary(md, verdicts)
	w.writeClaimed(md, verdicts)
	w.writeUnknown(md, verdicts)

	return len(md.String()), md.Build()
}

// writeSummary writes the status distribution table and chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, verdicts []model.Verdict) {
	counts := map[model.QueryStatus]int{}
	for _, v := range verdicts {
		counts[v.Status]++
	}

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"Claimed", strconv.Itoa(counts[model.StatusClaimed])},
			{"Available", strconv.Itoa(counts[model.StatusAvailable])},
			{"Unknown", strconv.Itoa(counts[model.StatusUnknown])},
			{"Illegal", strconv.Itoa(counts[model.StatusIllegal])},
			{"**Total**", "**" + strconv.Itoa(len(verdicts)) + "**"},
		},
	})
	md.PlainText("")

	if len(verdicts) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Verdict Distribution"),
			piechart.WithShowData(true),
		)
		for _, status := range []model.QueryStatus{
			model.StatusClaimed, model.StatusAvailable,
			model.StatusUnknown, model.StatusIllegal,
		} {
			if counts[status] > 0 {
				chart.LabelAndIntValue(status.String(), uint64(counts[status]))
			}
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeClaimed writes the confirmed accounts table.
func (w *MarkdownWriter) writeClaimed(md *markdown.Markdown, verdicts []model.Verdict) {
	md.H2("Claimed Accounts")
	md.PlainText("")

	claimed := claimedOf(verdicts)
	if len(claimed) == 0 {
		md.PlainText("No claimed accounts found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(claimed))
	for _, v := range claimed {
		rows = append(rows, []string{
			v.Identifier.Value,
			v.SiteName,
			v.URLUser,
			strconv.FormatFloat(v.Elapsed.Seconds(), 'f', 2, 64) + "s",
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Identifier", "Site", "Profile URL", "Response Time"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeUnknown lists sites that could not be checked.
func (w *MarkdownWriter) writeUnknown(md *markdown.Markdown, verdicts []model.Verdict) {
	var unknown []model.Verdict
	for _, v := range verdicts {
		if v.Status == model.StatusUnknown {
			unknown = append(unknown, v)
		}
	}
	if len(unknown) == 0 {
		return
	}

	md.H2("Unchecked Sites")
	md.PlainText("")
	rows := make([][]string, 0, len(unknown))
	for _, v := range unknown {
		rows = append(rows, []string{v.SiteName, v.Context})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")
}
