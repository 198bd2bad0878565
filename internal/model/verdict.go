package model

import "time"

// QueryStatus is the classified existence outcome for one
// (identifier, service) pair.
//
// Design decision: We use a closed enum with an exhaustive switch in the
// classifier rather than free-form strings so the compiler forces every
// detection strategy to be handled; there is no "impossible case" fallback.
type QueryStatus int

const (
	// StatusUnknown means the probe could not determine existence:
	// a transport failure or a service-side block (captcha, country ban).
	StatusUnknown QueryStatus = iota

	// StatusClaimed means the identifier is registered on the service.
	StatusClaimed

	// StatusAvailable means the identifier is not registered on the service.
	StatusAvailable

	// StatusIllegal means the identifier is not valid for the service
	// (failed the descriptor's validity pattern); no probe was issued.
	StatusIllegal
)

// String returns the human-readable status name.
func (s QueryStatus) String() string {
	switch s {
	case StatusClaimed:
		return "Claimed"
	case StatusAvailable:
		return "Available"
	case StatusIllegal:
		return "Illegal"
	case StatusUnknown:
		return "Unknown"
	default:
		return "Unknown"
	}
}

// Verdict is the result for one (identifier, service) pair.
// Exactly one Verdict is produced per descriptor that passed the
// applicability filter; descriptors skipped by the kind or tag filter
// produce none at all.
type Verdict struct {
	// Identifier is the probed identifier.
	Identifier Identifier `json:"identifier"`

	// SiteName is the unique descriptor name (e.g. "GitHub").
	SiteName string `json:"siteName"`

	// URLMain is the service's main page.
	URLMain string `json:"urlMain"`

	// URLUser is the public profile URL for the identifier.
	// Empty for Illegal verdicts where no URL was derived.
	URLUser string `json:"urlUser"`

	// Status is the classified existence outcome.
	Status QueryStatus `json:"status"`

	// HTTPStatus is the response status code, or 0 when no response was
	// delivered (transport failure or Illegal short-circuit).
	HTTPStatus int `json:"httpStatus"`

	// Elapsed is the probe round-trip time. Zero when no probe was issued.
	Elapsed time.Duration `json:"elapsed"`

	// Context carries a human-readable note for Unknown verdicts:
	// the transport failure description or a matched failure annotation.
	Context string `json:"context,omitempty"`

	// ExtractedIDs maps discovered identifier values to their kind,
	// populated only when recursive extraction is enabled.
	ExtractedIDs map[string]string `json:"extractedIds,omitempty"`
}

// Found reports whether the verdict confirms the identifier exists.
func (v Verdict) Found() bool {
	return v.Status == StatusClaimed
}
