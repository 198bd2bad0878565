package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

// siteEntry mirrors one site record in the JSON database.
// Field names follow the maigret/sherlock data format; the loader converts
// them into the stricter SiteDescriptor representation.
type siteEntry struct {
	ErrorType  string            `json:"errorType"`
	URLMain    string            `json:"urlMain"`
	URL        string            `json:"url"`
	URLProbe   string            `json:"urlProbe"`
	ErrorMsg   stringList        `json:"errorMsg"`
	Errors     map[string]string `json:"errors"`
	RegexCheck string            `json:"regexCheck"`
	Headers    map[string]string `json:"headers"`
	Type       string            `json:"type"`
	Tags       []string          `json:"tags"`
	Rank       int               `json:"rank"`
	HeadOnly   *bool             `json:"request_head_only"`
}

// stringList accepts either a JSON string or an array of strings.
// The data format historically allowed both for errorMsg.
type stringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// InvalidSite records a descriptor that failed to load.
// The failure is local to one site: the caller logs it and the rest of
// the catalog remains usable.
type InvalidSite struct {
	// Name is the site name as it appears in the database.
	Name string

	// Reason describes why the descriptor was rejected.
	// errors.Is works against ErrUnknownStrategy, ErrBadTemplate,
	// and ErrBadPattern.
	Reason error
}

// Load reads the site database from path and builds the catalog.
//
// Malformed JSON and missing files are fatal (the run cannot start
// without a catalog). Individual descriptors that fail validation are
// collected into Catalog.Invalid and skipped rather than failing the load.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided catalog path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
		}
		return nil, fmt.Errorf("failed to read site catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds the catalog from raw JSON database bytes.
func Parse(data []byte) (*Catalog, error) {
	var entries map[string]siteEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse site catalog: %w", err)
	}

	// Deterministic ordering: JSON maps iterate randomly in Go, but the
	// catalog is an ordered collection. Sort by name; rank ordering is a
	// separate, explicit operation.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	cat := &Catalog{}
	for _, name := range names {
		desc, err := buildDescriptor(name, entries[name])
		if err != nil {
			cat.Invalid = append(cat.Invalid, InvalidSite{Name: name, Reason: err})
			continue
		}
		cat.sites = append(cat.sites, desc)
	}

	if len(cat.sites) == 0 {
		return nil, ErrEmptyCatalog
	}
	return cat, nil
}

// buildDescriptor validates one site entry and converts it into an
// immutable SiteDescriptor.
func buildDescriptor(name string, e siteEntry) (*SiteDescriptor, error) {
	strategy, err := ParseStrategy(e.ErrorType)
	if err != nil {
		return nil, err
	}

	if strings.Count(e.URL, placeholder) != 1 {
		return nil, fmt.Errorf("%w: %q", ErrBadTemplate, e.URL)
	}
	if e.URLProbe != "" && strings.Count(e.URLProbe, placeholder) != 1 {
		return nil, fmt.Errorf("%w: %q", ErrBadTemplate, e.URLProbe)
	}

	var pattern *regexp.Regexp
	if e.RegexCheck != "" {
		pattern, err = regexp.Compile(e.RegexCheck)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadPattern, err)
		}
	}

	kind := e.Type
	if kind == "" {
		kind = "username"
	}

	// HEAD requests default to on for status-code detection: the body is
	// never inspected, so fetching it is wasted transfer. Sites that
	// misbehave on HEAD opt out with request_head_only: false.
	headOnly := strategy == StrategyStatusCode
	if e.HeadOnly != nil {
		headOnly = *e.HeadOnly && strategy == StrategyStatusCode
	}

	return &SiteDescriptor{
		Name:               name,
		URLMain:            e.URLMain,
		URLTemplate:        e.URL,
		ProbeTemplate:      e.URLProbe,
		Strategy:           strategy,
		ErrorMessages:      []string(e.ErrorMsg),
		FailureAnnotations: e.Errors,
		Headers:            e.Headers,
		IdentifierKind:     kind,
		Tags:               e.Tags,
		HeadOnly:           headOnly,
		Rank:               e.Rank,
		validPattern:       pattern,
	}, nil
}
