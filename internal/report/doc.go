// Package report presents scan results.
//
// Two surfaces live here. The ConsoleSink streams verdicts to the
// terminal as they are classified, satisfying the exploration driver's
// sink contract. The Writer implementations serialize the collected
// verdicts after the run: CSV, JSON, plain text, and Markdown.
//
// The probing engine never writes files itself; everything
// presentation-related funnels through this package.
package report
