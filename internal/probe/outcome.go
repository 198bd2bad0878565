package probe

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// ErrorKind classifies a transport failure. The kind is reported in the
// verdict's context message so a reader can tell a slow service from an
// unreachable one.
type ErrorKind int

const (
	// ErrorKindGeneric covers transport failures that fit no other kind.
	ErrorKindGeneric ErrorKind = iota

	// ErrorKindTimeout means the request exceeded its deadline.
	ErrorKindTimeout

	// ErrorKindConnection means the TCP connection could not be
	// established or was dropped.
	ErrorKindConnection

	// ErrorKindProxy means the SOCKS or HTTP proxy refused the request.
	ErrorKindProxy
)

// String returns the human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindConnection:
		return "connection error"
	case ErrorKindProxy:
		return "proxy error"
	default:
		return "request error"
	}
}

// KindOfError maps a transport error to its ErrorKind.
func KindOfError(err error) ErrorKind {
	if err == nil {
		return ErrorKindGeneric
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}

	// x/net/proxy wraps dial failures with a "socks connect" prefix.
	msg := err.Error()
	if strings.Contains(msg, "socks connect") || strings.Contains(msg, "proxyconnect") {
		return ErrorKindProxy
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorKindConnection
	}

	return ErrorKindGeneric
}

// Outcome is the transport-level result of executing one probe: either a
// delivered response or a classified failure. Outcomes are created and
// consumed within a single dispatch round.
type Outcome struct {
	// StatusCode is the response status, or 0 on transport failure.
	StatusCode int

	// Body is the response body. Empty for HEAD requests and failures.
	Body string

	// Elapsed is the request round-trip time.
	Elapsed time.Duration

	// Err is the transport failure, nil when a response was delivered.
	Err error

	// ErrKind classifies Err. Meaningless when Err is nil.
	ErrKind ErrorKind
}

// Failed reports whether the probe ended in a transport failure.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// failureDescription is the context message attached to Unknown verdicts
// produced by transport failures.
func (o Outcome) failureDescription() string {
	if o.Err == nil {
		return ""
	}
	return o.ErrKind.String() + ": " + o.Err.Error()
}
