package backend

import (
	"context"
	"errors"
	"net"
	"time"
)

// Session is a connected backend stream after a successful bootstrap.
type Session struct {
	conn    net.Conn
	handler Handler
	wait    time.Duration
	buf     []byte
}

// Pump reads the stream and forwards each chunk to the handler until the
// session ends. It reports whether the supervisor should reconnect right
// away. On every way out the handler is disconnected and the connection
// closed.
//
// Exits and their verdicts:
//   - handler reports not-okay, read error, or context done: no reconnect
//   - handler verdict FAIL: no reconnect
//   - handler verdict RECONNECT: reconnect
func (s *Session) Pump(ctx context.Context) (reconnect bool) {
	defer func() {
		s.handler.Disconnect()
		_ = s.conn.Close()
	}()

	if s.buf == nil {
		s.buf = make([]byte, recvBufSize)
	}
	for {
		if !s.handler.IsOkay() {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}

		_ = s.conn.SetReadDeadline(time.Now().Add(s.wait))
		n, err := s.conn.Read(s.buf)
		if n > 0 {
			// Bytes first: a read may carry data together with its error.
			switch s.handler.Handle(s.buf[:n]) {
			case VerdictOK:
			case VerdictReconnect:
				return true
			default:
				return false
			}
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				// Would-block; the checks above run again.
				continue
			}
			return false
		}
	}
}

// Close releases the connection without running the pump.
func (s *Session) Close() error {
	return s.conn.Close()
}
