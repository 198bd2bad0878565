package probe

import (
	"net/http"

	"github.com/nao1215/namescan/internal/catalog"
	"github.com/nao1215/namescan/internal/model"
)

// defaultUserAgent mimics Firefox on Linux to blend in. Identifying
// strings such as the tool name draw blocks from anti-bot layers.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// Target is the concrete request derived from one (descriptor, identifier)
// pair. Targets are ephemeral and recomputed for each probe.
type Target struct {
	// URL is the request target, with the identifier substituted in.
	URL string

	// Method is http.MethodHead or http.MethodGet.
	Method string

	// Headers is the merged header set: defaults first, then the
	// descriptor's overrides.
	Headers map[string]string

	// FollowRedirects is false for the RedirectURL strategy, which
	// classifies on the unredirected status of the original URL.
	FollowRedirects bool
}

// NewTarget derives the request for probing id against d. The userAgent
// argument overrides the default when non-empty.
func NewTarget(d *catalog.SiteDescriptor, id model.Identifier, userAgent string) Target {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	headers := map[string]string{
		"User-Agent": userAgent,
	}
	for k, v := range d.Headers {
		headers[k] = v
	}

	method := http.MethodGet
	if d.Strategy == catalog.StrategyStatusCode && d.HeadOnly {
		method = http.MethodHead
	}

	return Target{
		URL:             d.ProbeURL(id.Value),
		Method:          method,
		Headers:         headers,
		FollowRedirects: d.Strategy != catalog.StrategyRedirectURL,
	}
}
