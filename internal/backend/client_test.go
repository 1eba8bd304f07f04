package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"
)

// scriptedHandler implements Handler for tests. Verdicts trigger on stream
// content so that chunk coalescing cannot skew them.
type scriptedHandler struct {
	mu          sync.Mutex
	accept      bool
	okay        bool
	failOn      string
	reconnectOn string
	prefix      []byte
	stream      []byte
	disconnects int
}

func newScriptedHandler() *scriptedHandler {
	return &scriptedHandler{accept: true, okay: true}
}

func (h *scriptedHandler) Connect(prefix []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prefix = append([]byte(nil), prefix...)
	return h.accept
}

func (h *scriptedHandler) Handle(chunk []byte) Verdict {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stream = append(h.stream, chunk...)
	if h.failOn != "" && bytes.Contains(h.stream, []byte(h.failOn)) {
		return VerdictFail
	}
	if h.reconnectOn != "" && bytes.Contains(h.stream, []byte(h.reconnectOn)) {
		return VerdictReconnect
	}
	return VerdictOK
}

func (h *scriptedHandler) IsOkay() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.okay
}

func (h *scriptedHandler) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnects++
}

func (h *scriptedHandler) setOkay(v bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.okay = v
}

func (h *scriptedHandler) snapshot() (prefix, stream string, disconnects int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return string(h.prefix), string(h.stream), h.disconnects
}

// serve runs fn on the first accepted connection of a loopback listener.
func serve(t *testing.T, fn func(net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		fn(conn)
	}()
	return ln.Addr().String()
}

// testClient builds a Client against addr with tight test cadences.
func testClient(t *testing.T, addr, query string) *Client {
	t.Helper()
	parts, err := SplitURL("http://" + addr + "/status.pl")
	if err != nil {
		t.Fatalf("SplitURL: %v", err)
	}
	return &Client{
		Parts:     parts,
		Query:     query,
		HelloWait: 5 * time.Millisecond,
		HelloMax:  200,
	}
}

func readRequest(t *testing.T, conn net.Conn) string {
	t.Helper()
	buf := make([]byte, 4096)
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Errorf("server read: %v", err)
		return ""
	}
	return string(buf[:n])
}

const helloResponse = "HTTP/1.1 200 OK\r\nServer: X\r\n\r\n{\"hello\":1}"

func TestClientDial_HappyPath(t *testing.T) {
	query := "cmd=realtime;ascii=1;client=c1;name=lamp;stassid=net;staip=10.0.0.2;version=dev;maxch=20"
	gotReq := make(chan string, 1)
	addr := serve(t, func(conn net.Conn) {
		gotReq <- readRequest(t, conn)
		if _, err := conn.Write([]byte(helloResponse)); err != nil {
			t.Errorf("server write: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	})

	h := newScriptedHandler()
	sess, err := testClient(t, addr, query).Dial(context.Background(), h)
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer func() { _ = sess.Close() }()

	prefix, _, _ := h.snapshot()
	if prefix != "{\"hello\":1}" {
		t.Fatalf("handler prefix = %q, want the greeting body", prefix)
	}

	req := <-gotReq
	host, _, _ := net.SplitHostPort(addr)
	wantLines := []string{
		"POST /status.pl?" + query + " HTTP/1.1\r\n",
		"Host: " + host + "\r\n",
		"Authorization: Basic \r\n",
		"User-Agent: laempli/dev\r\n",
		fmt.Sprintf("Content-Length: %d\r\n", len(query)),
	}
	for _, want := range wantLines {
		if !strings.Contains(req, want) {
			t.Fatalf("request missing %q:\n%s", want, req)
		}
	}
	if !strings.HasPrefix(req, wantLines[0]) {
		t.Fatalf("request line wrong:\n%s", req)
	}
	if !strings.HasSuffix(req, "\r\n\r\n"+query) {
		t.Fatalf("request body should duplicate the query:\n%s", req)
	}
}

// The query string has to reach both the request-line and the body; a
// server may read either place.
func TestSendRequest_RequestLine(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantLine string
	}{
		{"with query", "cmd=realtime;ascii=1", "POST /status.pl?cmd=realtime;ascii=1 HTTP/1.1\r\n"},
		{"without query", "", "POST /status.pl HTTP/1.1\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{
				Parts: Parts{Host: "backend.example", Path: "status.pl", Port: 80},
				Query: tt.query,
			}
			client, server := net.Pipe()
			defer func() { _ = client.Close() }()
			got := make(chan string, 1)
			go func() {
				defer func() { _ = server.Close() }()
				buf := make([]byte, 4096)
				n, _ := server.Read(buf)
				got <- string(buf[:n])
			}()
			if err := c.sendRequest(client); err != nil {
				t.Fatalf("sendRequest error: %v", err)
			}
			req := <-got
			if !strings.HasPrefix(req, tt.wantLine) {
				t.Fatalf("request line wrong, want %q:\n%s", tt.wantLine, req)
			}
			if !strings.HasSuffix(req, "\r\n\r\n"+tt.query) {
				t.Fatalf("request body should duplicate the query:\n%s", req)
			}
		})
	}
}

func TestClientDial_SendsCredentials(t *testing.T) {
	gotReq := make(chan string, 1)
	addr := serve(t, func(conn net.Conn) {
		gotReq <- readRequest(t, conn)
		_, _ = conn.Write([]byte(helloResponse))
		time.Sleep(50 * time.Millisecond)
	})

	c := testClient(t, addr, "q=123456789")
	c.Parts.Auth = "lamp:secret"
	sess, err := c.Dial(context.Background(), newScriptedHandler())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer func() { _ = sess.Close() }()

	want := "Authorization: Basic " + base64.StdEncoding.EncodeToString([]byte("lamp:secret")) + "\r\n"
	if req := <-gotReq; !strings.Contains(req, want) {
		t.Fatalf("request missing %q:\n%s", want, req)
	}
}

func TestClientDial_BadStatus(t *testing.T) {
	addr := serve(t, func(conn net.Conn) {
		_ = readRequest(t, conn)
		_, _ = conn.Write([]byte("HTTP/1.1 302 Found\r\nLocation: http://elsewhere/\r\n\r\n"))
	})

	_, err := testClient(t, addr, "q").Dial(context.Background(), newScriptedHandler())
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("Dial error = %v, want ErrBadStatus", err)
	}
}

type errResolver struct{ err error }

func (r errResolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	return netip.Addr{}, r.err
}

func TestClientDial_DNSFailure(t *testing.T) {
	c := &Client{
		Parts:    Parts{Host: "backend.example", Path: "status.pl", Port: 80},
		Query:    "q",
		Resolver: errResolver{err: errors.New("no such host")},
	}
	_, err := c.Dial(context.Background(), newScriptedHandler())
	if !errors.Is(err, ErrDNSFailure) {
		t.Fatalf("Dial error = %v, want ErrDNSFailure", err)
	}
}

func TestClientDial_ConnectRefused(t *testing.T) {
	// Grab a port that nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	_, err = testClient(t, addr, "q").Dial(context.Background(), newScriptedHandler())
	if !errors.Is(err, ErrConnectFailure) {
		t.Fatalf("Dial error = %v, want ErrConnectFailure", err)
	}
}

func TestClientDial_ResponseTimeout(t *testing.T) {
	addr := serve(t, func(conn net.Conn) {
		_ = readRequest(t, conn)
		time.Sleep(time.Second)
	})

	c := testClient(t, addr, "q")
	c.HelloMax = 10
	start := time.Now()
	_, err := c.Dial(context.Background(), newScriptedHandler())
	if !errors.Is(err, ErrResponseTimeout) {
		t.Fatalf("Dial error = %v, want ErrResponseTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %v, want about 50ms", elapsed)
	}
}

func TestClientDial_ServerClosesEarly(t *testing.T) {
	addr := serve(t, func(conn net.Conn) {
		_ = readRequest(t, conn)
	})

	_, err := testClient(t, addr, "q").Dial(context.Background(), newScriptedHandler())
	if !errors.Is(err, ErrResponseTimeout) {
		t.Fatalf("Dial error = %v, want ErrResponseTimeout", err)
	}
}

// The device polls the socket for up to 50 s before declaring a response
// timeout; a slow backend inside that window must still succeed.
func TestClientDial_SlowResponseWithinBudget(t *testing.T) {
	addr := serve(t, func(conn net.Conn) {
		_ = readRequest(t, conn)
		time.Sleep(200 * time.Millisecond)
		_, _ = conn.Write([]byte(helloResponse))
		time.Sleep(50 * time.Millisecond)
	})

	c := testClient(t, addr, "q")
	c.HelloWait = 2 * time.Millisecond
	c.HelloMax = 500
	sess, err := c.Dial(context.Background(), newScriptedHandler())
	if err != nil {
		t.Fatalf("Dial error = %v, want success after slow response", err)
	}
	_ = sess.Close()
}

func TestClientDial_HandlerRejects(t *testing.T) {
	addr := serve(t, func(conn net.Conn) {
		_ = readRequest(t, conn)
		_, _ = conn.Write([]byte(helloResponse))
	})

	h := newScriptedHandler()
	h.accept = false
	_, err := testClient(t, addr, "q").Dial(context.Background(), h)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Dial error = %v, want ErrRejected", err)
	}
}

// eofConn hands out its whole payload together with io.EOF in one Read,
// as the io.Reader contract permits.
type eofConn struct {
	payload []byte
	read    bool
}

func (c *eofConn) Read(b []byte) (int, error) {
	if c.read {
		return 0, io.EOF
	}
	c.read = true
	return copy(b, c.payload), io.EOF
}

func (c *eofConn) Write(b []byte) (int, error)      { return len(b), nil }
func (c *eofConn) Close() error                     { return nil }
func (c *eofConn) LocalAddr() net.Addr              { return &net.TCPAddr{} }
func (c *eofConn) RemoteAddr() net.Addr             { return &net.TCPAddr{} }
func (c *eofConn) SetDeadline(time.Time) error      { return nil }
func (c *eofConn) SetReadDeadline(time.Time) error  { return nil }
func (c *eofConn) SetWriteDeadline(time.Time) error { return nil }

func TestAwaitResponse_BytesWithError(t *testing.T) {
	c := &Client{HelloWait: time.Millisecond, HelloMax: 3}
	body, err := c.awaitResponse(context.Background(), &eofConn{payload: []byte(helloResponse)})
	if err != nil {
		t.Fatalf("awaitResponse error: %v", err)
	}
	if string(body) != "{\"hello\":1}" {
		t.Fatalf("body = %q, want the greeting", body)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     string
		wantErr  error
		wantBody string
	}{
		{"ok", "HTTP/1.1 200 OK\r\nServer: X\r\n\r\n{\"hello\":1}", nil, "{\"hello\":1}"},
		{"ten byte body", "HTTP/1.1 200 OK\r\nA: b\r\n\r\n0123456789", nil, "0123456789"},
		{"doubled space before status", "HTTP/1.1  200 OK\r\nA: b\r\n\r\n0123456789", nil, "0123456789"},
		{"http2", "HTTP/2 200\r\nA: b\r\n\r\n0123456789", ErrNotHTTP11, ""},
		{"not http at all", "SSH-2.0-OpenSSH_9.0\r\n", ErrNotHTTP11, ""},
		{"no line end", "HTTP/1.1 200 OK", ErrNotHTTP11, ""},
		{"redirect", "HTTP/1.1 302 Found\r\nLocation: x\r\n\r\n0123456789", ErrBadStatus, ""},
		{"server error", "HTTP/1.1 500 Oops\r\nA: b\r\n\r\n0123456789", ErrBadStatus, ""},
		{"mangled status", "HTTP/1.1 abc\r\nA: b\r\n\r\n0123456789", ErrBadStatus, ""},
		{"no header end", "HTTP/1.1 200 OK\r\nServer: X\r\nmo", ErrNoHeaderEnd, ""},
		// The terminator search starts after the status line, so a
		// headerless response does not terminate.
		{"headerless", "HTTP/1.1 200 OK\r\n\r\n0123456789", ErrNoHeaderEnd, ""},
		{"nine byte body", "HTTP/1.1 200 OK\r\nA: b\r\n\r\n123456789", ErrShortBody, ""},
		{"empty body", "HTTP/1.1 200 OK\r\nA: b\r\n\r\n", ErrShortBody, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := parseResponse([]byte(tt.resp))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseResponse error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResponse error: %v", err)
			}
			if string(body) != tt.wantBody {
				t.Fatalf("body = %q, want %q", body, tt.wantBody)
			}
		})
	}
}

func TestAtoi(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"200 OK", 200},
		{"  404 Not Found", 404},
		{"302x", 302},
		{"-12", -12},
		{"abc", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := atoi([]byte(tt.in)); got != tt.want {
			t.Fatalf("atoi(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
