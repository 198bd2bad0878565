package tor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// checkProxyTimeout bounds the proxy connectivity check. This is only a
// local handshake with the SOCKS port, not a request through Tor, so a
// short timeout is enough.
const checkProxyTimeout = 2 * time.Second

// Client provides Tor network connectivity for the probe dispatcher.
// It wraps a SOCKS5 dialer and builds http.Transport values that route
// probe requests through the Tor daemon.
type Client struct {
	// proxyAddress is the Tor SOCKS5 proxy address in "host:port" format.
	proxyAddress string

	// dialer is the cached SOCKS5 dialer.
	dialer proxy.Dialer

	// controlAddress is the Tor control port in "host:port" format.
	// Empty when rotation is unavailable (external Tor without a known
	// control port).
	controlAddress string
}

// NewClient creates a Tor client for the given SOCKS5 proxy address.
// controlAddress may be empty; it is only needed for circuit rotation.
//
// The constructor validates the address format but does not touch the
// network; call CheckConnection to verify the daemon is reachable.
func NewClient(proxyAddress, controlAddress string) (*Client, error) {
	if !isValidHostPort(proxyAddress) {
		return nil, ErrInvalidProxyAddress
	}
	if controlAddress != "" && !isValidHostPort(controlAddress) {
		return nil, ErrInvalidProxyAddress
	}

	// nil auth: Tor's SOCKS port does not require authentication.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		proxyAddress:   proxyAddress,
		dialer:         dialer,
		controlAddress: controlAddress,
	}, nil
}

// isValidHostPort checks "host:port" format with a port in 1..65535.
func isValidHostPort(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// SOCKS5 protocol constants for the connectivity check.
const (
	socks5Version  = 0x05
	socks5AuthNone = 0x00
	socks5NoAccept = 0xFF
)

// CheckConnection verifies that a Tor SOCKS5 proxy is listening at the
// configured address by performing a SOCKS5 version negotiation.
func (c *Client) CheckConnection(ctx context.Context) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.proxyAddress)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(checkProxyTimeout)); err != nil {
		return ProxyStatusCannotConnect
	}

	// Offer "no authentication" only.
	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return ProxyStatusWrongType
	}
	if resp[0] != socks5Version || resp[1] == socks5NoAccept || resp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

// Transport returns an http.Transport that routes all connections through
// the Tor SOCKS5 proxy. TLS verification stays enabled; compression is off.
// The connection pool is kept small because each connection holds a circuit.
func (c *Client) Transport() *http.Transport {
	return &http.Transport{
		DialContext: func(_ context.Context, network, addr string) (net.Conn, error) {
			return c.dialer.Dial(network, addr)
		},
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		DisableCompression:  true,
	}
}

// Controller returns a control-port controller for circuit rotation.
// Returns ErrNoControlPort when no control address is configured.
func (c *Client) Controller() (*Controller, error) {
	if c.controlAddress == "" {
		return nil, ErrNoControlPort
	}
	return NewController(c.controlAddress), nil
}

// ProxyAddress returns the configured SOCKS5 proxy address.
func (c *Client) ProxyAddress() string {
	return c.proxyAddress
}

// ControlAddress returns the configured control port address, or empty.
func (c *Client) ControlAddress() string {
	return c.controlAddress
}
