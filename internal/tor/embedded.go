package tor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// EmbeddedTor manages an embedded Tor daemon using tornago.
// It lets namescan route probes through Tor without requiring a system
// Tor installation, and exposes the control port needed for per-request
// circuit rotation.
//
// Note: bootstrapping takes 1-3 minutes on first start while the daemon
// downloads directory information and builds initial circuits.
type EmbeddedTor struct {
	// process is the running Tor daemon process.
	process *tornago.TorProcess

	// socksAddr is the SOCKS5 proxy address (set after successful startup).
	socksAddr string

	// controlAddr is the control port address (set after successful startup).
	controlAddr string

	// startupTimeout is the maximum time to wait for Tor to bootstrap.
	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		e.startupTimeout = timeout
	}
}

// NewEmbeddedTor creates a new embedded Tor manager.
// Call Start to actually launch the daemon.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{
		startupTimeout: 3 * time.Minute,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start launches the embedded Tor daemon and waits for it to bootstrap.
// The context can cancel the startup; on cancellation the started process
// is stopped before returning.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	// ":0" lets the OS pick free ports for both listeners.
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	// Blocks until the daemon is bootstrapped or the timeout expires.
	process, err := tornago.StartTorDaemon(launchCfg)
	if err != nil {
		return fmt.Errorf("failed to start embedded Tor daemon: %w", err)
	}

	select {
	case <-ctx.Done():
		_ = process.Stop() //nolint:errcheck // Best effort cleanup
		return ctx.Err()
	default:
	}

	e.process = process
	e.socksAddr = process.SocksAddr()
	e.controlAddr = process.ControlAddr()
	return nil
}

// Stop gracefully shuts down the embedded Tor daemon.
// Safe to call multiple times or on an unstarted instance.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}
	err := e.process.Stop()
	e.process = nil
	return err
}

// SocksAddr returns the SOCKS5 proxy address of the running daemon,
// or an empty string when Tor is not running.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}

// ControlAddr returns the control port address of the running daemon,
// or an empty string when Tor is not running. The control port is what
// enables SIGNAL NEWNYM circuit rotation.
func (e *EmbeddedTor) ControlAddr() string {
	return e.controlAddr
}

// IsRunning reports whether the embedded daemon is currently running.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// NewClient creates a Tor client backed by the embedded daemon, with the
// control port wired in for circuit rotation.
func (e *EmbeddedTor) NewClient() (*Client, error) {
	if !e.IsRunning() {
		return nil, errors.New("embedded Tor daemon is not running")
	}
	return NewClient(e.socksAddr, e.controlAddr)
}
