package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"
)

// Error kinds the bootstrap distinguishes. Everything here is fatal for the
// current attempt; the supervisor decides what happens next.
var (
	ErrDNSFailure      = errors.New("backend host did not resolve")
	ErrConnectFailure  = errors.New("backend connect failed")
	ErrWriteFailure    = errors.New("request write failed")
	ErrResponseTimeout = errors.New("no usable response from backend")
	ErrNotHTTP11       = errors.New("response is not HTTP/1.1")
	ErrBadStatus       = errors.New("backend status not 200")
	ErrNoHeaderEnd     = errors.New("response headers not terminated")
	ErrShortBody       = errors.New("response body prefix too short")
	ErrRejected        = errors.New("handler rejected the stream")
)

const (
	defaultUserAgent = "laempli/dev"

	connectTimeout = 10 * time.Second

	// First-response polling: the device checks for bytes every 100 ms and
	// gives up after 500 tries, about 50 s.
	helloPollInterval = 100 * time.Millisecond
	helloPollLimit    = 500

	// Steady-state pump cadence.
	pumpPollInterval = 23 * time.Millisecond

	recvBufSize = 1024

	// Status code position in the response line, one past the HTTP/1.1
	// prefix and its trailing space.
	statusOffset = 9

	// Responses with almost no body behind the headers are rejected; empty
	// redirects tend to look like that.
	minBodyPrefix = 10
)

// Resolver turns a host name into one address.
type Resolver interface {
	Resolve(ctx context.Context, host string) (netip.Addr, error)
}

// NetResolver resolves via the system resolver, preferring IPv4 addresses
// the way the device stack does. Literal addresses pass through without a
// lookup.
type NetResolver struct{}

var _ Resolver = NetResolver{}

// Resolve implements Resolver.
func (NetResolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, err
	}
	for _, a := range addrs {
		if a.Is4() || a.Is4In6() {
			return a.Unmap(), nil
		}
	}
	if len(addrs) > 0 {
		return addrs[0], nil
	}
	return netip.Addr{}, &net.DNSError{Err: "no addresses", Name: host}
}

// Client performs the bootstrap handshake against one backend: resolve,
// connect, send the fixed POST, parse the one-buffer response header and
// hand the body prefix to the protocol handler. Zero-value optionals fall
// back to the device defaults.
type Client struct {
	Parts     Parts
	Query     string
	UserAgent string        // "" uses defaultUserAgent
	Resolver  Resolver      // nil resolves via the system DNS
	HelloWait time.Duration // per-poll wait for the first response buffer
	HelloMax  int           // polls before giving up
}

// Dial runs the bootstrap. On success the returned session owns the
// connection with its send side already closed; the device never writes
// again on it. On every failure the connection is closed before return.
func (c *Client) Dial(ctx context.Context, handler Handler) (*Session, error) {
	resolver := c.Resolver
	if resolver == nil {
		resolver = NetResolver{}
	}
	addr, err := resolver.Resolve(ctx, c.Parts.Host)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDNSFailure, err)
	}
	slog.DebugContext(ctx, "backend resolved", "host", c.Parts.Host, "addr", addr)

	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", netip.AddrPortFrom(addr, c.Parts.Port).String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailure, err)
	}

	if err := c.sendRequest(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}
	slog.DebugContext(ctx, "backend request sent",
		"host", c.Parts.Host, "port", c.Parts.Port, "path", c.Parts.Path)

	body, err := c.awaitResponse(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if !handler.Connect(body) {
		_ = conn.Close()
		return nil, ErrRejected
	}

	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = cw.CloseWrite()
	}
	return &Session{conn: conn, handler: handler, wait: pumpPollInterval}, nil
}

// sendRequest writes the one request of the session. The query string goes
// into the request-line and again into the body, so that servers may read
// either place.
func (c *Client) sendRequest(conn net.Conn) error {
	auth := ""
	if c.Parts.Auth != "" {
		auth = base64.StdEncoding.EncodeToString([]byte(c.Parts.Auth))
	}
	ua := c.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	target := "/" + c.Parts.Path
	if c.Query != "" {
		target += "?" + c.Query
	}
	req := fmt.Sprintf("POST %s HTTP/1.1\r\nHost: %s\r\nAuthorization: Basic %s\r\nUser-Agent: %s\r\nContent-Length: %d\r\n\r\n%s",
		target, c.Parts.Host, auth, ua, len(c.Query), c.Query)
	_, err := conn.Write([]byte(req))
	return err
}

// awaitResponse polls for the first buffer of the response and parses it.
func (c *Client) awaitResponse(ctx context.Context, conn net.Conn) ([]byte, error) {
	wait := c.HelloWait
	if wait <= 0 {
		wait = helloPollInterval
	}
	limit := c.HelloMax
	if limit <= 0 {
		limit = helloPollLimit
	}

	buf := make([]byte, recvBufSize)
	for attempt := 0; attempt < limit; attempt++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrResponseTimeout, ctx.Err())
		default:
		}
		_ = conn.SetReadDeadline(time.Now().Add(wait))
		n, err := conn.Read(buf)
		if n > 0 {
			// A read may deliver the response together with its error;
			// the bytes win.
			_ = conn.SetReadDeadline(time.Time{})
			return parseResponse(buf[:n])
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrResponseTimeout, err)
		}
	}
	return nil, ErrResponseTimeout
}

// parseResponse validates the status line and returns the body prefix after
// the header terminator. The whole header must sit in this first buffer, as
// it does on the device.
func parseResponse(resp []byte) ([]byte, error) {
	if !bytes.HasPrefix(resp, []byte("HTTP/1.1")) {
		return nil, ErrNotHTTP11
	}
	nl := bytes.Index(resp, []byte("\r\n"))
	if nl < 0 {
		return nil, ErrNotHTTP11
	}
	status := 0
	if len(resp) > statusOffset {
		status = atoi(resp[statusOffset:])
	}
	if status != 200 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, status)
	}
	rest := resp[nl+2:]
	end := bytes.Index(rest, []byte("\r\n\r\n"))
	if end < 0 {
		return nil, ErrNoHeaderEnd
	}
	body := rest[end+4:]
	if len(body) < minBodyPrefix {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortBody, len(body))
	}
	return body, nil
}

// atoi parses a decimal prefix: optional blanks and sign, then digits until
// the first non-digit.
func atoi(b []byte) int {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	sign := 1
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		if b[i] == '-' {
			sign = -1
		}
		i++
	}
	n := 0
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		n = n*10 + int(b[i]-'0')
		i++
	}
	return sign * n
}
