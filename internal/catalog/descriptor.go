package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholder is the identifier substitution point in URL templates.
const placeholder = "{}"

// DetectionStrategy selects how a response is classified into an
// existence verdict.
//
// Design decision: A closed enum rather than the free-form errorType
// strings from the data file. The loader rejects unknown values, so the
// classifier can switch exhaustively without a fallback path.
type DetectionStrategy int

const (
	// StrategyStatusCode classifies by HTTP status: 2xx means the
	// identifier is claimed, anything else means available.
	StrategyStatusCode DetectionStrategy = iota

	// StrategyBodyMessage classifies by searching the body for the
	// descriptor's "not found" messages: a match means available.
	StrategyBodyMessage

	// StrategyRedirectURL classifies by the unredirected status of the
	// original URL: the service redirects away when the identifier does
	// not exist, so redirects are suppressed at dispatch time and a 2xx
	// on the original URL means claimed.
	StrategyRedirectURL
)

// String returns the data-file spelling of the strategy.
func (s DetectionStrategy) String() string {
	switch s {
	case StrategyStatusCode:
		return "status_code"
	case StrategyBodyMessage:
		return "message"
	case StrategyRedirectURL:
		return "response_url"
	default:
		return "invalid"
	}
}

// ParseStrategy converts a data-file errorType value into a
// DetectionStrategy. Unknown values return ErrUnknownStrategy.
func ParseStrategy(errorType string) (DetectionStrategy, error) {
	switch errorType {
	case "status_code":
		return StrategyStatusCode, nil
	case "message":
		return StrategyBodyMessage, nil
	case "response_url":
		return StrategyRedirectURL, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, errorType)
	}
}

// SiteDescriptor is the immutable per-service probing configuration.
// Descriptors are built once by the loader and never mutated afterwards;
// probe workers only read them.
type SiteDescriptor struct {
	// Name is the unique site name within the catalog (e.g. "GitHub").
	Name string

	// URLMain is the service's main page, reported alongside verdicts.
	URLMain string

	// URLTemplate is the public profile URL with one {} placeholder.
	URLTemplate string

	// ProbeTemplate, when non-empty, overrides URLTemplate as the request
	// target. Some services expose a separate existence endpoint that is
	// cheaper or more reliable than the human-facing profile page.
	ProbeTemplate string

	// Strategy selects the response classification rule.
	Strategy DetectionStrategy

	// ErrorMessages are the "not found" body substrings for
	// StrategyBodyMessage. Unused by the other strategies.
	ErrorMessages []string

	// FailureAnnotations maps body substrings to human-readable failure
	// reasons (captcha walls, country bans). Checked for every strategy
	// before classification; a match yields an Unknown verdict.
	FailureAnnotations map[string]string

	// Headers are site-specific request headers merged over the defaults.
	Headers map[string]string

	// IdentifierKind is the identifier kind this site accepts.
	// Defaults to "username".
	IdentifierKind string

	// Tags are free-form labels used by the tag filter (e.g. "photo", "ru").
	Tags []string

	// HeadOnly requests HEAD instead of GET. Only meaningful for
	// StrategyStatusCode, where the body is never inspected.
	HeadOnly bool

	// Rank is the popularity ordering hint; zero means unranked.
	Rank int

	// validPattern is the compiled regexCheck, nil when the site accepts
	// any identifier.
	validPattern *regexp.Regexp
}

// ProfileURL returns the public profile URL for the identifier.
func (d *SiteDescriptor) ProfileURL(identifier string) string {
	return strings.Replace(d.URLTemplate, placeholder, identifier, 1)
}

// ProbeURL returns the request target for the identifier. It prefers the
// probe template when the site declares one.
func (d *SiteDescriptor) ProbeURL(identifier string) string {
	if d.ProbeTemplate != "" {
		return strings.Replace(d.ProbeTemplate, placeholder, identifier, 1)
	}
	return d.ProfileURL(identifier)
}

// AcceptsKind reports whether the descriptor applies to identifiers of the
// given kind. An empty requested kind means "username".
func (d *SiteDescriptor) AcceptsKind(kind string) bool {
	if kind == "" {
		kind = "username"
	}
	return d.IdentifierKind == kind
}

// HasAnyTag reports whether the descriptor carries at least one of the
// given tags. An empty filter matches everything.
func (d *SiteDescriptor) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range d.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// ValidIdentifier reports whether the identifier satisfies the site's
// validity pattern. Sites without a pattern accept everything.
func (d *SiteDescriptor) ValidIdentifier(identifier string) bool {
	if d.validPattern == nil {
		return true
	}
	return d.validPattern.MatchString(identifier)
}
