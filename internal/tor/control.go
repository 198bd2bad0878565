package tor

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"
)

// Control port defaults.
const (
	// controlTimeout bounds one control-port exchange. The control port
	// is local, so replies are fast; the generous value covers a busy
	// daemon mid-bootstrap.
	controlTimeout = 10 * time.Second

	// circuitSettleDelay is how long to wait after SIGNAL NEWNYM before
	// issuing the next request. Tor rate-limits NEWNYM and needs a moment
	// to open fresh circuits; requesting immediately tends to reuse the
	// old exit.
	circuitSettleDelay = 5 * time.Second
)

// Controller rotates Tor circuits through the control port.
// It implements the rotate-per-request behavior of the anonymity channel:
// after each probe completes, the current circuit is discarded and the
// next probe travels a fresh path.
//
// Design decision: We speak the control protocol directly over a TCP
// connection rather than pulling in a control library. Only two commands
// are needed (AUTHENTICATE and SIGNAL NEWNYM), and the package already
// handles the SOCKS5 handshake at the byte level for the proxy check.
type Controller struct {
	// address is the control port in "host:port" format.
	address string

	// password is the control port password; empty for null authentication
	// (tornago launches the embedded daemon without one).
	password string

	// settleDelay is the post-NEWNYM wait. Exposed for tests.
	settleDelay time.Duration
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControlPassword sets the control port password.
func WithControlPassword(password string) ControllerOption {
	return func(c *Controller) {
		c.password = password
	}
}

// WithSettleDelay overrides the post-rotation settle delay.
func WithSettleDelay(d time.Duration) ControllerOption {
	return func(c *Controller) {
		c.settleDelay = d
	}
}

// NewController creates a Controller for the given control port address.
func NewController(address string, opts ...ControllerOption) *Controller {
	c := &Controller{
		address:     address,
		settleDelay: circuitSettleDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rotate requests a fresh Tor circuit and waits for it to settle.
// It opens a control connection, authenticates, sends SIGNAL NEWNYM,
// and sleeps the settle delay so the next request actually uses a new
// circuit rather than a pooled connection on the old one.
//
// Rotate blocks its caller on purpose: the dispatcher serializes probes
// while rotation is active, so there is never an in-flight request on the
// circuit being torn down.
func (c *Controller) Rotate(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("failed to connect to Tor control port: %w", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(controlTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set control connection deadline: %w", err)
	}

	r := bufio.NewReader(conn)

	if err := c.command(conn, r, fmt.Sprintf("AUTHENTICATE %q", c.password)); err != nil {
		return fmt.Errorf("control authentication failed: %w", err)
	}
	if err := c.command(conn, r, "SIGNAL NEWNYM"); err != nil {
		return fmt.Errorf("circuit rotation failed: %w", err)
	}
	// Best effort: the daemon closes the connection either way.
	_, _ = fmt.Fprint(conn, "QUIT\r\n") //nolint:errcheck // QUIT is courtesy only

	// Give Tor time to build the new circuit. Honor cancellation: a
	// shutdown mid-rotation should not hang on the sleep.
	select {
	case <-time.After(c.settleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// command sends one control command and checks for the 250 OK reply.
func (c *Controller) command(conn net.Conn, r *bufio.Reader, cmd string) error {
	if _, err := fmt.Fprintf(conn, "%s\r\n", cmd); err != nil {
		return err
	}
	line, err := r.ReadString('\n')
	if err != nil {
		return err
	}
	if !strings.HasPrefix(line, "250") {
		return fmt.Errorf("%w: %s", ErrControlRefused, strings.TrimSpace(line))
	}
	return nil
}
