package config

import "errors"

// Configuration validation errors, returned by Config.Validate.
// Sentinel errors keep errors.Is checks possible while carrying
// human-readable messages.
var (
	// ErrNoIdentifier is returned when no identifier was given to probe.
	ErrNoIdentifier = errors.New("no identifier specified: provide at least one username")

	// ErrInvalidTimeout is returned for negative timeouts. Zero is
	// valid and means no per-request deadline.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxWorkers is returned when the worker cap is not
	// positive.
	ErrInvalidMaxWorkers = errors.New("invalid max workers: must be positive")

	// ErrProxyWithTor is returned when both an explicit proxy and a Tor
	// mode are configured. The two routing modes are mutually exclusive.
	ErrProxyWithTor = errors.New("conflicting routing: --proxy cannot be combined with --tor or --unique-tor")

	// ErrUniqueTorWithoutTor is returned when rotate-per-request is
	// requested without Tor routing.
	ErrUniqueTorWithoutTor = errors.New("conflicting routing: --unique-tor requires --tor")

	// ErrInvalidProxyURL is returned when the proxy URL cannot be
	// parsed or uses an unsupported scheme.
	ErrInvalidProxyURL = errors.New("invalid proxy URL: expected socks5://host:port or http://host:port")
)
