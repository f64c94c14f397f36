package testutil

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"
)

// LineClient speaks the server's line protocol for integration tests.
type LineClient struct {
	conn   net.Conn
	reader *bufio.Reader
	t      *testing.T
}

// NewLineClient dials addr.
//
// Precondition: addr must be a listening "host:port".
// Postcondition: Returns a connected client or fails the test.
func NewLineClient(t *testing.T, addr string) *LineClient {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}
	t.Cleanup(func() { conn.Close() })

	return &LineClient{
		conn:   conn,
		reader: bufio.NewReader(conn),
		t:      t,
	}
}

// Send writes text followed by a newline.
func (c *LineClient) Send(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write([]byte(text + "\n")); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// Login sends a credential envelope and returns the server's reply line.
func (c *LineClient) Login(name, secret string) string {
	c.t.Helper()
	envelope, err := json.Marshal(map[string]string{
		"character_name": name,
		"account_hash":   secret,
	})
	if err != nil {
		c.t.Fatalf("encoding login: %v", err)
	}
	c.Send(string(envelope))
	return c.ReadLine(5 * time.Second)
}

// ReadLine returns the next CRLF-terminated line without its terminator, or
// fails the test on timeout.
func (c *LineClient) ReadLine(timeout time.Duration) string {
	c.t.Helper()
	line, err := c.TryReadLine(timeout)
	if err != nil {
		c.t.Fatalf("reading line: %v", err)
	}
	return line
}

// TryReadLine is ReadLine returning the error instead of failing the test.
func (c *LineClient) TryReadLine(timeout time.Duration) (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return line, err
	}
	if !strings.HasSuffix(line, "\r\n") {
		return line, errors.New("line not terminated by CRLF: " + line)
	}
	return strings.TrimSuffix(line, "\r\n"), nil
}

// ExpectSilence fails the test if any data arrives within d.
func (c *LineClient) ExpectSilence(d time.Duration) {
	c.t.Helper()
	line, err := c.TryReadLine(d)
	if err == nil || line != "" {
		c.t.Fatalf("expected silence, got %q", line)
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		c.t.Fatalf("expected silence, got error %v", err)
	}
}

// ExpectClosed fails the test unless the server closes the connection within d.
func (c *LineClient) ExpectClosed(d time.Duration) {
	c.t.Helper()
	line, err := c.TryReadLine(d)
	if err == nil {
		c.t.Fatalf("expected closed connection, got %q", line)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		c.t.Fatalf("connection still open after %s", d)
	}
}

// Close closes the connection.
func (c *LineClient) Close() {
	c.conn.Close()
}
