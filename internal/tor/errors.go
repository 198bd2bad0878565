package tor

import "errors"

// Tor connectivity errors.
//
// Design decision: Specific sentinel errors rather than generic wrapping,
// so callers can branch with errors.Is: a proxy of the wrong type is a
// configuration mistake to fail fast on, while a timeout may be transient.
var (
	// ErrProxyNotTor is returned when the configured proxy address responds
	// but does not speak the Tor SOCKS5 protocol.
	ErrProxyNotTor = errors.New("proxy is not a Tor SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection can be
	// established to the proxy address. Tor is probably not running.
	ErrProxyCannotConnect = errors.New("cannot connect to Tor proxy")

	// ErrProxyTimeout is returned when the proxy connection check times out.
	ErrProxyTimeout = errors.New("timeout connecting to Tor proxy")

	// ErrInvalidProxyAddress is returned when the proxy address is not in
	// "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrNoControlPort is returned when circuit rotation is requested but
	// no control port address is known.
	ErrNoControlPort = errors.New("no Tor control port configured: circuit rotation unavailable")

	// ErrControlRefused is returned when the control port rejects a command.
	ErrControlRefused = errors.New("Tor control port refused command")
)

// ProxyStatus is the result of checking the Tor proxy connection.
type ProxyStatus int

const (
	// ProxyStatusOK indicates a working Tor SOCKS5 proxy.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType indicates the endpoint is not a SOCKS5 proxy.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect indicates no connection could be established.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the connection attempt timed out.
	ProxyStatusTimeout
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not Tor)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error returns the matching sentinel error, or nil for ProxyStatusOK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotTor
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	default:
		return errors.New("unknown proxy status")
	}
}
