package probe

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/model"
	"github.com/nao1215/namescan/internal/tor"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxWorkers caps concurrent probes per dispatch round. The
// effective cap is the smaller of this value and the number of
// applicable descriptors.
const DefaultMaxWorkers = 20

// maxBodySize bounds how much of a response body is read for
// classification and extraction.
const maxBodySize = 10 * 1024 * 1024 // 10MB

// CircuitRotator rebuilds the anonymity circuit between requests.
// A Dispatcher configured with a rotator serializes its probes: only one
// request is in flight per circuit incarnation.
type CircuitRotator interface {
	Rotate(ctx context.Context) error
}

// Result pairs a verdict with the response body it was classified from.
// The body is retained so the exploration driver can hand fetched pages
// to the identifier extractor without a second fetch.
type Result struct {
	Verdict model.Verdict
	Body    string
}

// Dispatcher issues one concurrent HTTP probe per applicable descriptor
// and classifies each response. It is safe to reuse across rounds; all
// per-round state lives on the stack of Dispatch.
type Dispatcher struct {
	// follow and nofollow share one transport but differ in redirect
	// policy. The RedirectURL strategy needs the unredirected status.
	follow   *http.Client
	nofollow *http.Client

	// timeout is the per-request deadline. Zero means no deadline.
	timeout time.Duration

	// maxWorkers caps in-flight probes per round.
	maxWorkers int

	// rotator, when set, forces sequential dispatch with a circuit
	// rotation after every request.
	rotator CircuitRotator

	// torEnabled reports whether requests are routed through Tor.
	// Hidden-service descriptors are skipped when it is false.
	torEnabled bool

	// tags filters descriptors; empty means no filtering.
	tags []string

	// userAgent overrides the default request User-Agent when non-empty.
	userAgent string

	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout sets the per-request deadline. Zero disables it; the
// engine never imposes a deadline silently.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.timeout = d
	}
}

// WithMaxWorkers sets the concurrent probe cap. Non-positive values are
// ignored.
func WithMaxWorkers(n int) Option {
	return func(dp *Dispatcher) {
		if n > 0 {
			dp.maxWorkers = n
		}
	}
}

// WithRotator enables rotate-per-request dispatch via r.
func WithRotator(r CircuitRotator) Option {
	return func(dp *Dispatcher) {
		dp.rotator = r
	}
}

// WithTorRouting marks the transport as Tor-backed, enabling probes of
// hidden-service descriptors.
func WithTorRouting() Option {
	return func(dp *Dispatcher) {
		dp.torEnabled = true
	}
}

// WithTagFilter restricts probing to descriptors carrying at least one
// of the given tags.
func WithTagFilter(tags []string) Option {
	return func(dp *Dispatcher) {
		dp.tags = tags
	}
}

// WithUserAgent sets a custom User-Agent header for all probes.
func WithUserAgent(ua string) Option {
	return func(dp *Dispatcher) {
		dp.userAgent = ua
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(dp *Dispatcher) {
		dp.logger = logger
	}
}

// NewDispatcher creates a Dispatcher over the given transport. A nil
// transport uses http.DefaultTransport; callers routing through Tor or a
// proxy pass the transport built for it.
func NewDispatcher(transport http.RoundTripper, opts ...Option) *Dispatcher {
	if transport == nil {
		transport = http.DefaultTransport
	}

	dp := &Dispatcher{
		follow: &http.Client{Transport: transport},
		nofollow: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxWorkers: DefaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(dp)
	}
	if dp.logger == nil {
		dp.logger = slog.Default()
	}
	return dp
}

// Dispatch probes id against every applicable descriptor in sites and
// streams one Result per applicable descriptor over the returned channel.
// The channel is closed when the round's collection barrier is reached.
//
// Descriptors skipped by the kind or tag filter produce no result at all.
// Descriptors whose validity pattern rejects the identifier produce an
// Illegal result synchronously, with no network call. Hidden services
// that cannot be reached this run (Tor off, or a bad v3 address) likewise
// produce a synchronous Unknown result.
func (dp *Dispatcher) Dispatch(ctx context.Context, id model.Identifier, sites []*catalog.SiteDescriptor) <-chan Result {
	applicable := dp.applicable(id, sites)
	results := make(chan Result, len(applicable))

	var probed []*catalog.SiteDescriptor
	for _, d := range applicable {
		if !d.ValidIdentifier(id.Value) {
			results <- Result{Verdict: model.Verdict{
				Identifier: id,
				SiteName:   d.Name,
				URLMain:    d.URLMain,
				Status:     model.StatusIllegal,
			}}
			continue
		}
		if note, ok := dp.unreachable(d); ok {
			results <- Result{Verdict: model.Verdict{
				Identifier: id,
				SiteName:   d.Name,
				URLMain:    d.URLMain,
				URLUser:    d.ProfileURL(id.Value),
				Status:     model.StatusUnknown,
				Context:    note,
			}}
			continue
		}
		probed = append(probed, d)
	}

	limit := dp.maxWorkers
	if len(probed) < limit {
		limit = len(probed)
	}
	if dp.rotator != nil {
		// One live circuit at a time: the whole round serializes behind
		// the rotation.
		limit = 1
	}
	if limit == 0 {
		close(results)
		return results
	}

	go func() {
		defer close(results)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for _, d := range probed {
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				out := dp.probeOne(gctx, d, id)
				status, note := Classify(d, out)
				results <- Result{
					Verdict: model.Verdict{
						Identifier: id,
						SiteName:   d.Name,
						URLMain:    d.URLMain,
						URLUser:    d.ProfileURL(id.Value),
						Status:     status,
						HTTPStatus: out.StatusCode,
						Elapsed:    out.Elapsed,
						Context:    note,
					},
					Body: out.Body,
				}

				if dp.rotator != nil {
					if err := dp.rotator.Rotate(gctx); err != nil {
						dp.logger.Warn("circuit rotation failed",
							"site", d.Name,
							"error", err,
						)
					}
				}
				return nil
			})
		}
		// Probe failures are folded into verdicts; only cancellation
		// propagates here.
		if err := g.Wait(); err != nil {
			dp.logger.Debug("dispatch round interrupted", "error", err)
		}
	}()

	return results
}

// applicable filters sites down to the descriptors this round probes.
func (dp *Dispatcher) applicable(id model.Identifier, sites []*catalog.SiteDescriptor) []*catalog.SiteDescriptor {
	out := make([]*catalog.SiteDescriptor, 0, len(sites))
	for _, d := range sites {
		if !d.AcceptsKind(id.Kind) {
			continue
		}
		if !d.HasAnyTag(dp.tags) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// unreachable reports whether a descriptor cannot be probed at all this
// run, with the note carried on its Unknown verdict. Hidden services
// need the anonymity channel and a checksum-valid v3 address; either
// failure is known before any network call.
func (dp *Dispatcher) unreachable(d *catalog.SiteDescriptor) (string, bool) {
	host := tor.OnionHostname(d.URLTemplate)
	if host == "" {
		return "", false
	}
	if !dp.torEnabled {
		dp.logger.Debug("hidden service unreachable without tor", "site", d.Name)
		return "hidden service requires tor routing", true
	}
	if !tor.IsValidV3Address(host) {
		dp.logger.Debug("invalid onion address in catalog", "site", d.Name, "host", host)
		return "invalid v3 onion address", true
	}
	return "", false
}

// probeOne executes a single probe and captures its outcome. Transport
// failures are recorded, never returned.
func (dp *Dispatcher) probeOne(ctx context.Context, d *catalog.SiteDescriptor, id model.Identifier) Outcome {
	target := NewTarget(d, id, dp.userAgent)

	if dp.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, dp.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, nil)
	if err != nil {
		return Outcome{Err: err, ErrKind: ErrorKindGeneric}
	}
	for k, v := range target.Headers {
		req.Header.Set(k, v)
	}

	client := dp.follow
	if !target.FollowRedirects {
		client = dp.nofollow
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return Outcome{
			Elapsed: time.Since(start),
			Err:     err,
			ErrKind: KindOfError(err),
		}
	}
	defer resp.Body.Close()

	var body string
	if target.Method != http.MethodHead {
		b, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if readErr != nil {
			return Outcome{
				StatusCode: resp.StatusCode,
				Elapsed:    time.Since(start),
				Err:        readErr,
				ErrKind:    KindOfError(readErr),
			}
		}
		body = string(b)
	}

	return Outcome{
		StatusCode: resp.StatusCode,
		Body:       body,
		Elapsed:    time.Since(start),
	}
}
