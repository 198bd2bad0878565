package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/model"
)

// countingTransport is an instrumented http.RoundTripper that serves
// canned responses and records in-flight request counts.
type countingTransport struct {
	mu          sync.Mutex
	inflight    int
	maxInflight int
	total       int

	// delay holds each request open, widening the in-flight window.
	delay time.Duration

	// respond builds the response for a request. Defaults to 200 with an
	// empty body.
	respond func(*http.Request) *http.Response
}

func (c *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	c.inflight++
	if c.inflight > c.maxInflight {
		c.maxInflight = c.inflight
	}
	c.total++
	c.mu.Unlock()

	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	c.inflight--
	c.mu.Unlock()

	if c.respond != nil {
		return c.respond(req), nil
	}
	return textResponse(http.StatusOK, ""), nil
}

func (c *countingTransport) stats() (total, maxInflight int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.maxInflight
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

// collect drains a result channel into a map keyed by site name.
func collect(t *testing.T, results <-chan Result) map[string]Result {
	t.Helper()
	out := make(map[string]Result)
	for r := range results {
		if _, dup := out[r.Verdict.SiteName]; dup {
			t.Errorf("duplicate result for site %s", r.Verdict.SiteName)
		}
		out[r.Verdict.SiteName] = r
	}
	return out
}

// TestDispatchKindFilter verifies that descriptors declaring a different
// identifier kind produce no result at all.
func TestDispatchKindFilter(t *testing.T) {
	t.Parallel()

	sites := []*catalog.SiteDescriptor{
		{Name: "UserSite", URLTemplate: "https://a.example/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername},
		{Name: "GaiaSite", URLTemplate: "https://b.example/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindGaiaID},
	}

	transport := &countingTransport{}
	dp := NewDispatcher(transport)
	results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if _, ok := results["UserSite"]; !ok {
		t.Error("expected a result for UserSite")
	}
	if _, ok := results["GaiaSite"]; ok {
		t.Error("GaiaSite must produce no result for a username identifier")
	}
}

// TestDispatchTagFilter verifies that the tag filter skips descriptors
// without emitting verdicts for them.
func TestDispatchTagFilter(t *testing.T) {
	t.Parallel()

	sites := []*catalog.SiteDescriptor{
		{Name: "PhotoSite", URLTemplate: "https://a.example/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername, Tags: []string{"photo"}},
		{Name: "CodeSite", URLTemplate: "https://b.example/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername, Tags: []string{"coding"}},
	}

	dp := NewDispatcher(&countingTransport{}, WithTagFilter([]string{"photo"}))
	results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if _, ok := results["PhotoSite"]; !ok {
		t.Error("expected a result for PhotoSite")
	}
}

// TestDispatchIllegal verifies the synchronous pre-check path: an
// identifier failing the validity pattern yields Illegal with zero
// network calls and empty timing.
func TestDispatchIllegal(t *testing.T) {
	t.Parallel()

	data := `{
		"GitHub": {
			"errorType": "status_code",
			"url": "https://github.com/{}",
			"urlMain": "https://github.com",
			"regexCheck": "^[a-zA-Z0-9]+$"
		}
	}`
	cat, err := catalog.Parse([]byte(data))
	if err != nil {
		t.Fatal(err)
	}

	transport := &countingTransport{}
	dp := NewDispatcher(transport)
	results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("-invalid-", ""), cat.Sites()))

	r, ok := results["GitHub"]
	if !ok {
		t.Fatal("expected an Illegal result for GitHub")
	}
	if r.Verdict.Status != model.StatusIllegal {
		t.Errorf("status = %s, want Illegal", r.Verdict.Status)
	}
	if r.Verdict.Elapsed != 0 {
		t.Error("Illegal verdicts must carry empty timing")
	}
	if r.Verdict.HTTPStatus != 0 {
		t.Error("Illegal verdicts must carry no HTTP status")
	}
	if total, _ := transport.stats(); total != 0 {
		t.Errorf("expected zero network calls, got %d", total)
	}
}

// TestDispatchStatusCode runs the StatusCode strategy end to end against
// canned 200 and 404 responses.
func TestDispatchStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
		want       model.QueryStatus
	}{
		{"200 is claimed", http.StatusOK, model.StatusClaimed},
		{"404 is available", http.StatusNotFound, model.StatusAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := &countingTransport{
				respond: func(*http.Request) *http.Response {
					return textResponse(tt.statusCode, "")
				},
			}
			sites := []*catalog.SiteDescriptor{
				{Name: "Site", URLMain: "https://example.com", URLTemplate: "https://example.com/{}", Strategy: catalog.StrategyStatusCode, HeadOnly: true, IdentifierKind: model.KindUsername},
			}

			dp := NewDispatcher(transport)
			results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))

			r := results["Site"]
			if r.Verdict.Status != tt.want {
				t.Errorf("status = %s, want %s", r.Verdict.Status, tt.want)
			}
			if r.Verdict.HTTPStatus != tt.statusCode {
				t.Errorf("http status = %d, want %d", r.Verdict.HTTPStatus, tt.statusCode)
			}
			if r.Verdict.URLUser != "https://example.com/alice" {
				t.Errorf("urlUser = %s", r.Verdict.URLUser)
			}
		})
	}
}

// TestDispatchBodyMessage runs the BodyMessage strategy end to end and
// verifies the body travels with the result for extraction.
func TestDispatchBodyMessage(t *testing.T) {
	t.Parallel()

	transport := &countingTransport{
		respond: func(req *http.Request) *http.Response {
			if strings.HasSuffix(req.URL.Path, "/ghost") {
				return textResponse(http.StatusOK, "User not found")
			}
			return textResponse(http.StatusOK, "<html>profile of alice</html>")
		},
	}
	sites := []*catalog.SiteDescriptor{
		{Name: "Site", URLTemplate: "https://example.com/{}", Strategy: catalog.StrategyBodyMessage, ErrorMessages: []string{"User not found"}, IdentifierKind: model.KindUsername},
	}
	dp := NewDispatcher(transport)

	claimed := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))
	if got := claimed["Site"].Verdict.Status; got != model.StatusClaimed {
		t.Errorf("status = %s, want Claimed", got)
	}
	if !strings.Contains(claimed["Site"].Body, "profile of alice") {
		t.Error("claimed result must carry the response body")
	}

	available := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("ghost", ""), sites))
	if got := available["Site"].Verdict.Status; got != model.StatusAvailable {
		t.Errorf("status = %s, want Available", got)
	}
}

// TestDispatchRedirectNotFollowed runs the RedirectURL strategy end to
// end against a transport serving a 302 and verifies the Location target
// is never requested: the verdict carries the unredirected status.
func TestDispatchRedirectNotFollowed(t *testing.T) {
	t.Parallel()

	transport := &countingTransport{
		respond: func(req *http.Request) *http.Response {
			if req.URL.Host == "landing.example" {
				return textResponse(http.StatusOK, "generic landing page")
			}
			resp := textResponse(http.StatusFound, "")
			resp.Header.Set("Location", "https://landing.example/")
			return resp
		},
	}
	sites := []*catalog.SiteDescriptor{
		{Name: "RedirSite", URLTemplate: "https://redir.example/{}", Strategy: catalog.StrategyRedirectURL, IdentifierKind: model.KindUsername},
	}
	dp := NewDispatcher(transport)

	results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("ghost", ""), sites))

	v := results["RedirSite"].Verdict
	if v.Status != model.StatusAvailable {
		t.Errorf("status = %s, want Available for a redirected miss", v.Status)
	}
	if v.HTTPStatus != http.StatusFound {
		t.Errorf("http status = %d, want the unredirected 302", v.HTTPStatus)
	}

	// Exactly one request: the redirect target was never fetched.
	total, _ := transport.stats()
	if total != 1 {
		t.Errorf("network requests = %d, want 1 (redirect must not be followed)", total)
	}
}

// TestDispatchTransportFailure verifies that a failing probe yields an
// Unknown verdict instead of aborting the round.
func TestDispatchTransportFailure(t *testing.T) {
	t.Parallel()

	// Point the descriptor at a reserved address with a tight timeout.
	sites := []*catalog.SiteDescriptor{
		{Name: "DeadSite", URLTemplate: "http://192.0.2.1/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername},
		{Name: "LiveSite", URLTemplate: "https://example.com/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername},
	}

	transport := &liveOnlyTransport{}
	dp := NewDispatcher(transport, WithTimeout(5*time.Second))
	results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	dead := results["DeadSite"]
	if dead.Verdict.Status != model.StatusUnknown {
		t.Errorf("dead site status = %s, want Unknown", dead.Verdict.Status)
	}
	if dead.Verdict.Context == "" {
		t.Error("Unknown verdicts must carry a context message")
	}
	if live := results["LiveSite"]; live.Verdict.Status != model.StatusClaimed {
		t.Errorf("live site status = %s, want Claimed", live.Verdict.Status)
	}
}

// liveOnlyTransport fails requests to DeadSite's host and serves 200 for
// everything else.
type liveOnlyTransport struct{}

func (liveOnlyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host == "192.0.2.1" {
		return nil, fmt.Errorf("dial tcp %s: connection refused", req.URL.Host)
	}
	return textResponse(http.StatusOK, ""), nil
}

// TestDispatchConcurrencyBound verifies the worker cap: with 50
// applicable descriptors and the default cap, no more than 20 probes are
// in flight at once.
func TestDispatchConcurrencyBound(t *testing.T) {
	t.Parallel()

	sites := make([]*catalog.SiteDescriptor, 0, 50)
	for i := range 50 {
		sites = append(sites, &catalog.SiteDescriptor{
			Name:           fmt.Sprintf("Site%02d", i),
			URLTemplate:    fmt.Sprintf("https://site%02d.example/{}", i),
			Strategy:       catalog.StrategyStatusCode,
			IdentifierKind: model.KindUsername,
		})
	}

	transport := &countingTransport{delay: 20 * time.Millisecond}
	dp := NewDispatcher(transport)
	results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))

	if len(results) != 50 {
		t.Fatalf("expected 50 results, got %d", len(results))
	}
	total, maxInflight := transport.stats()
	if total != 50 {
		t.Errorf("expected 50 requests, got %d", total)
	}
	if maxInflight > DefaultMaxWorkers {
		t.Errorf("max in-flight = %d, want <= %d", maxInflight, DefaultMaxWorkers)
	}
}

// rotationRecorder counts rotations and fails the test if a rotation
// overlaps an in-flight probe.
type rotationRecorder struct {
	mu        sync.Mutex
	rotations int
}

func (r *rotationRecorder) Rotate(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rotations++
	return nil
}

// TestDispatchRotatePerRequest verifies that a configured rotator forces
// sequential dispatch and is invoked once per completed probe.
func TestDispatchRotatePerRequest(t *testing.T) {
	t.Parallel()

	sites := make([]*catalog.SiteDescriptor, 0, 5)
	for i := range 5 {
		sites = append(sites, &catalog.SiteDescriptor{
			Name:           fmt.Sprintf("Site%d", i),
			URLTemplate:    fmt.Sprintf("https://site%d.example/{}", i),
			Strategy:       catalog.StrategyStatusCode,
			IdentifierKind: model.KindUsername,
		})
	}

	transport := &countingTransport{delay: 10 * time.Millisecond}
	rotator := &rotationRecorder{}
	dp := NewDispatcher(transport, WithRotator(rotator))
	results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))

	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	_, maxInflight := transport.stats()
	if maxInflight != 1 {
		t.Errorf("max in-flight = %d, want 1 while rotating", maxInflight)
	}
	if rotator.rotations != 5 {
		t.Errorf("rotations = %d, want 5", rotator.rotations)
	}
}

// TestDispatchHiddenServices verifies how .onion descriptors behave with
// and without Tor routing: unreachable ones still produce exactly one
// verdict, an Unknown with no network call.
func TestDispatchHiddenServices(t *testing.T) {
	t.Parallel()

	sites := []*catalog.SiteDescriptor{
		{Name: "HiddenSite", URLTemplate: "http://facebookwkhpilnemxj7asaniu7vnjjbiltxjqhye3mhbshg7kx5tfyd.onion/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername},
		{Name: "ClearSite", URLTemplate: "https://example.com/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername},
	}

	t.Run("without tor the hidden site yields unknown without probing", func(t *testing.T) {
		t.Parallel()
		transport := &countingTransport{}
		dp := NewDispatcher(transport)
		results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}

		hidden := results["HiddenSite"].Verdict
		if hidden.Status != model.StatusUnknown {
			t.Errorf("status = %s, want Unknown", hidden.Status)
		}
		if hidden.Context == "" {
			t.Error("expected context naming the missing tor routing")
		}
		if hidden.HTTPStatus != 0 || hidden.Elapsed != 0 {
			t.Errorf("expected no probe, got status=%d elapsed=%s", hidden.HTTPStatus, hidden.Elapsed)
		}

		// Only the clear site reaches the network.
		total, _ := transport.stats()
		if total != 1 {
			t.Errorf("network requests = %d, want 1", total)
		}
	})

	t.Run("with tor the hidden site is probed", func(t *testing.T) {
		t.Parallel()
		transport := &countingTransport{}
		dp := NewDispatcher(transport, WithTorRouting())
		results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), sites))
		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results["HiddenSite"].Verdict.HTTPStatus != http.StatusOK {
			t.Errorf("expected hidden site to be probed, got %+v", results["HiddenSite"].Verdict)
		}
		total, _ := transport.stats()
		if total != 2 {
			t.Errorf("network requests = %d, want 2", total)
		}
	})

	t.Run("corrupted onion address yields unknown even with tor", func(t *testing.T) {
		t.Parallel()
		transport := &countingTransport{}
		dp := NewDispatcher(transport, WithTorRouting())
		corrupted := []*catalog.SiteDescriptor{
			{Name: "BadOnion", URLTemplate: "http://aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.onion/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername},
		}
		results := collect(t, dp.Dispatch(context.Background(), model.NewIdentifier("alice", ""), corrupted))

		bad := results["BadOnion"].Verdict
		if bad.Status != model.StatusUnknown {
			t.Errorf("status = %s, want Unknown", bad.Status)
		}
		if total, _ := transport.stats(); total != 0 {
			t.Errorf("network requests = %d, want 0 for an invalid address", total)
		}
	})
}

// TestDispatchNoApplicableSites verifies the empty round closes its
// channel immediately.
func TestDispatchNoApplicableSites(t *testing.T) {
	t.Parallel()

	dp := NewDispatcher(&countingTransport{})
	results := dp.Dispatch(context.Background(), model.NewIdentifier("alice", model.KindGaiaID), []*catalog.SiteDescriptor{
		{Name: "UserSite", URLTemplate: "https://a.example/{}", Strategy: catalog.StrategyStatusCode, IdentifierKind: model.KindUsername},
	})

	if _, open := <-results; open {
		t.Error("expected an immediately closed channel")
	}
}
