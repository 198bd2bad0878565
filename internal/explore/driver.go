package explore

import (
	"context"
	"log/slog"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/model"
	"github.com/nao1215/namescan/internal/probe"
)

// Sink receives the verdict stream. Implementations handle all
// presentation and serialization; the driver never writes files.
//
// Calls are strictly serialized: one Start per explored identifier,
// followed by that identifier's Updates, with Finish called exactly
// once after the queue drains.
type Sink interface {
	// Start announces that a new identifier's round is beginning.
	Start(id model.Identifier)

	// Update delivers one verdict as soon as it is classified.
	Update(v model.Verdict)

	// Finish announces run completion.
	Finish()
}

// Extractor mines a response body for candidate identifiers. It returns
// a value-to-kind mapping, possibly empty, and must be pure: the driver
// may call it from any round.
type Extractor interface {
	Extract(body string) map[string]string
}

// ProbeDispatcher is the dispatch seam between the driver and the
// probing engine. *probe.Dispatcher satisfies it.
type ProbeDispatcher interface {
	Dispatch(ctx context.Context, id model.Identifier, sites []*catalog.SiteDescriptor) <-chan probe.Result
}

// Driver runs the exploration loop: it pops identifiers off the work
// queue, dispatches one probe round each, streams verdicts to the sink,
// and folds discovered identifiers back into the queue.
type Driver struct {
	dispatcher ProbeDispatcher
	sites      []*catalog.SiteDescriptor
	sink       Sink

	// extractor, when set, enables recursive identifier discovery.
	extractor Extractor

	// caseSensitive disables case-folded deduplication.
	caseSensitive bool

	logger *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithExtractor enables recursive discovery via e.
func WithExtractor(e Extractor) DriverOption {
	return func(d *Driver) {
		d.extractor = e
	}
}

// WithCaseSensitive keeps identifiers differing only by case as
// distinct exploration targets.
func WithCaseSensitive() DriverOption {
	return func(d *Driver) {
		d.caseSensitive = true
	}
}

// WithDriverLogger sets a custom logger.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a Driver probing sites through dispatcher and
// streaming verdicts to sink.
func NewDriver(dispatcher ProbeDispatcher, sites []*catalog.SiteDescriptor, sink Sink, opts ...DriverOption) *Driver {
	d := &Driver{
		dispatcher: dispatcher,
		sites:      sites,
		sink:       sink,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Run explores the given identifiers until the work queue drains and
// returns every verdict produced. Discovered identifiers outside the
// queueable kind allow-list are dropped before queuing.
//
// A single probe failure never halts the run; it surfaces as an Unknown
// verdict. Run returns early only on context cancellation.
func (d *Driver) Run(ctx context.Context, ids []model.Identifier) ([]model.Verdict, error) {
	queue := NewQueue(d.caseSensitive)
	for _, id := range ids {
		queue.Push(id)
	}

	var verdicts []model.Verdict
	for {
		if err := ctx.Err(); err != nil {
			return verdicts, err
		}

		id, ok := queue.Pop()
		if !ok {
			break
		}

		d.logger.Debug("exploring identifier", "identifier", id.Value, "kind", id.Kind)
		d.sink.Start(id)

		// Single-drain loop: sink calls stay serialized and discovered
		// identifiers are folded in only after the round's barrier.
		var discovered []model.Identifier
		for result := range d.dispatcher.Dispatch(ctx, id, d.sites) {
			verdict := result.Verdict

			// Extraction runs on every delivered body, not only claimed
			// ones: an "account not found" page can still link the real
			// profile elsewhere, and annotated block pages often embed ids.
			if d.extractor != nil && result.Body != "" {
				verdict.ExtractedIDs = d.extract(result.Body)
				for value, kind := range verdict.ExtractedIDs {
					discovered = append(discovered, model.NewIdentifier(value, kind))
				}
			}

			d.sink.Update(verdict)
			verdicts = append(verdicts, verdict)
		}

		for _, found := range discovered {
			if queue.Seen(found) {
				continue
			}
			d.logger.Debug("discovered identifier", "identifier", found.Value, "kind", found.Kind)
			queue.Push(found)
		}
	}

	d.sink.Finish()
	return verdicts, nil
}

// extract runs the extractor and drops kinds outside the allow-list.
func (d *Driver) extract(body string) map[string]string {
	raw := d.extractor.Extract(body)
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]string, len(raw))
	for value, kind := range raw {
		if value == "" || !model.QueueableKind(kind) {
			continue
		}
		out[value] = kind
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
