// Package scpi implements the line-terminated TCP command/response
// transport from spec §4.4. No corpus repo or ecosystem library
// provides a SCPI transport; this mirrors how the closest analogues in
// the retrieved corpus (nasa-jpl-golaborate's lakeshore/thermotek
// packages) hand-roll framing over bufio.Reader rather than depending
// on a protocol library (see SPEC_FULL.md, DOMAIN STACK).
package scpi

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/soochol/eol-force-tester/internal/eolerr"
)

const (
	postSendDelay = 50 * time.Millisecond
	clsSettle     = 200 * time.Millisecond
)

// Connection is a line-based TCP connection to a SCPI instrument.
type Connection struct {
	conn   net.Conn
	reader *bufio.Reader
	host   string
}

// Connect dials host:port, verifies the link by issuing *IDN? and
// requiring a non-empty reply, then issues *CLS and waits the settle
// period (spec §4.4).
func Connect(ctx context.Context, host string, port int, timeout time.Duration) (*Connection, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	dialer := net.Dialer{Timeout: timeout}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &eolerr.ConnectionError{Device: addr, Reason: "dial failed", Cause: err}
	}
	c := &Connection{conn: raw, reader: bufio.NewReader(raw), host: addr}

	idn, err := c.Query(ctx, "*IDN?", timeout)
	if err != nil {
		c.conn.Close()
		return nil, &eolerr.ConnectionError{Device: addr, Reason: "*IDN? failed", Cause: err}
	}
	if strings.TrimSpace(idn) == "" {
		c.conn.Close()
		return nil, &eolerr.ConnectionError{Device: addr, Reason: "*IDN? returned empty reply"}
	}

	if err := c.SendCommand(ctx, "*CLS"); err != nil {
		c.conn.Close()
		return nil, &eolerr.ConnectionError{Device: addr, Reason: "*CLS failed", Cause: err}
	}
	select {
	case <-time.After(clsSettle):
	case <-ctx.Done():
		c.conn.Close()
		return nil, ctx.Err()
	}
	return c, nil
}

// Disconnect closes the connection. Idempotent.
func (c *Connection) Disconnect() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return &eolerr.ConnectionError{Device: c.host, Reason: "close failed", Cause: err}
	}
	return nil
}

// SendCommand writes line to the wire, appending "\n" if absent, then
// waits the configured post-send settle delay (spec §4.4).
func (c *Connection) SendCommand(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		return &eolerr.OperationError{Device: c.host, Operation: "send_command", Reason: "write failed", Cause: err}
	}
	select {
	case <-time.After(postSendDelay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// Query writes line (see SendCommand) then reads one newline-terminated
// reply, stripping the terminator and surrounding whitespace.
func (c *Connection) Query(ctx context.Context, line string, timeout time.Duration) (string, error) {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := c.conn.Write([]byte(line)); err != nil {
		return "", &eolerr.OperationError{Device: c.host, Operation: "query", Reason: "write failed", Cause: err}
	}

	deadline := timeout
	if dl, ok := ctx.Deadline(); ok {
		if untilCtx := time.Until(dl); untilCtx < deadline {
			deadline = untilCtx
		}
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(deadline)); err != nil {
		return "", &eolerr.OperationError{Device: c.host, Operation: "query", Reason: "set deadline failed", Cause: err}
	}
	s, err := c.reader.ReadString('\n')
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return "", &eolerr.TimeoutError{Device: c.host, Operation: "query", Cause: err}
		}
		return "", &eolerr.OperationError{Device: c.host, Operation: "query", Reason: "read failed", Cause: err}
	}
	return strings.TrimSpace(s), nil
}
