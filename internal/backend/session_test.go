package backend

import (
	"context"
	"net"
	"testing"
	"time"
)

// pumpAgainst dials a test server and pumps it with the given handler.
func pumpAgainst(t *testing.T, ctx context.Context, h *scriptedHandler, fn func(net.Conn)) bool {
	t.Helper()
	addr := serve(t, fn)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	sess := &Session{conn: conn, handler: h, wait: 2 * time.Millisecond}
	return sess.Pump(ctx)
}

func writeSlowly(conn net.Conn, parts ...string) {
	for _, p := range parts {
		_, _ = conn.Write([]byte(p))
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSessionPump_ReconnectVerdict(t *testing.T) {
	h := newScriptedHandler()
	h.reconnectOn = "three"

	reconnect := pumpAgainst(t, context.Background(), h, func(conn net.Conn) {
		writeSlowly(conn, "one", "two", "three")
	})
	if !reconnect {
		t.Fatal("Pump = false, want reconnect on handler verdict")
	}

	_, stream, disconnects := h.snapshot()
	if stream != "onetwothree" {
		t.Fatalf("handler saw %q, want the full stream in order", stream)
	}
	if disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", disconnects)
	}
}

func TestSessionPump_FailVerdict(t *testing.T) {
	h := newScriptedHandler()
	h.failOn = "boom"

	reconnect := pumpAgainst(t, context.Background(), h, func(conn net.Conn) {
		writeSlowly(conn, "data", "boom")
	})
	if reconnect {
		t.Fatal("Pump = true, want no reconnect on FAIL verdict")
	}
	if _, _, disconnects := h.snapshot(); disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", disconnects)
	}
}

func TestSessionPump_ServerCloses(t *testing.T) {
	h := newScriptedHandler()

	reconnect := pumpAgainst(t, context.Background(), h, func(conn net.Conn) {
		writeSlowly(conn, "one")
	})
	if reconnect {
		t.Fatal("Pump = true, want false on connection end")
	}
	if _, stream, _ := h.snapshot(); stream != "one" {
		t.Fatalf("handler saw %q, want one", stream)
	}
}

func TestSessionPump_HandlerNotOkay(t *testing.T) {
	h := newScriptedHandler()
	h.setOkay(false)

	start := time.Now()
	reconnect := pumpAgainst(t, context.Background(), h, func(conn net.Conn) {
		time.Sleep(500 * time.Millisecond)
	})
	if reconnect {
		t.Fatal("Pump = true, want false when handler is not okay")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Pump took %v, want immediate exit", elapsed)
	}
	if _, _, disconnects := h.snapshot(); disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", disconnects)
	}
}

func TestSessionPump_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	h := newScriptedHandler()

	start := time.Now()
	reconnect := pumpAgainst(t, ctx, h, func(conn net.Conn) {
		time.Sleep(500 * time.Millisecond)
	})
	if reconnect {
		t.Fatal("Pump = true, want false on cancellation")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Pump ignored cancellation, took %v", elapsed)
	}
}

// A read may carry the final chunk and the connection close together; the
// handler gets the bytes before the close ends the pump.
func TestSessionPump_FinalChunkWithClose(t *testing.T) {
	h := newScriptedHandler()
	sess := &Session{conn: &eofConn{payload: []byte("last words")}, handler: h, wait: time.Millisecond}

	if sess.Pump(context.Background()) {
		t.Fatal("Pump = true, want false on connection end")
	}
	_, stream, disconnects := h.snapshot()
	if stream != "last words" {
		t.Fatalf("handler saw %q, want the final chunk", stream)
	}
	if disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", disconnects)
	}
}

func TestSessionPump_FinalChunkVerdictWins(t *testing.T) {
	h := newScriptedHandler()
	h.reconnectOn = "reconnect"
	sess := &Session{conn: &eofConn{payload: []byte("reconnect")}, handler: h, wait: time.Millisecond}

	if !sess.Pump(context.Background()) {
		t.Fatal("Pump = false, want the verdict from the final chunk")
	}
}

func TestSessionPump_AfterClose(t *testing.T) {
	addr := serve(t, func(conn net.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	h := newScriptedHandler()
	sess := &Session{conn: conn, handler: h, wait: 2 * time.Millisecond}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if sess.Pump(context.Background()) {
		t.Fatal("Pump on a closed session = true, want false")
	}
}
