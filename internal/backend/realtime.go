package backend

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Deadolus/tschenggins-laempli/internal/jenkins"
)

const (
	// A quiet stream is dead. The server heartbeats well inside this.
	defaultWatchdog = 65 * time.Second

	// Upper bound for one buffered line; a stream that exceeds it is
	// garbage, not framing.
	maxLineLen = 4096
)

// RealtimeHandler parses the realtime stream: newline-framed key=value
// records after a greeting that must contain "hello". Job updates arrive as
// a JSON array under status= and land in the registry.
//
// Recognised records:
//
//	heartbeat=<counter>   keep-alive, refreshes the watchdog
//	status=<json>         job updates
//	error=<message>       server-side failure, ends the session
//	reconnect=<reason>    server asks for a fresh connection
//
// Unknown records are ignored.
type RealtimeHandler struct {
	registry *jenkins.Registry
	watchdog time.Duration

	mu        sync.Mutex
	connected bool
	lastRecv  time.Time
	buf       []byte
}

var _ Handler = (*RealtimeHandler)(nil)

// NewRealtimeHandler builds a handler feeding the given registry. A zero
// watchdog selects the default.
func NewRealtimeHandler(registry *jenkins.Registry, watchdog time.Duration) *RealtimeHandler {
	if watchdog <= 0 {
		watchdog = defaultWatchdog
	}
	return &RealtimeHandler{registry: registry, watchdog: watchdog}
}

// Connect implements Handler. The body prefix is the server's greeting and
// must contain "hello"; anything else rejects the session.
func (h *RealtimeHandler) Connect(prefix []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !bytes.Contains(prefix, []byte("hello")) {
		slog.Warn("backend greeting rejected", "prefix", string(prefix))
		return false
	}
	h.connected = true
	h.lastRecv = time.Now()
	h.buf = h.buf[:0]
	return true
}

// Handle implements Handler. Chunks may split records anywhere; partial
// lines are carried over to the next call.
func (h *RealtimeHandler) Handle(chunk []byte) Verdict {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected {
		return VerdictFail
	}
	h.lastRecv = time.Now()
	h.buf = append(h.buf, chunk...)

	for {
		nl := bytes.IndexByte(h.buf, '\n')
		if nl < 0 {
			if len(h.buf) > maxLineLen {
				slog.Warn("backend line overflow", "len", len(h.buf))
				return VerdictFail
			}
			return VerdictOK
		}
		line := bytes.TrimSuffix(h.buf[:nl], []byte("\r"))
		verdict := h.handleLine(line)
		h.buf = append(h.buf[:0], h.buf[nl+1:]...)
		if verdict != VerdictOK {
			return verdict
		}
	}
}

func (h *RealtimeHandler) handleLine(line []byte) Verdict {
	switch {
	case len(line) == 0:
		// keep-alive newline
	case bytes.HasPrefix(line, []byte("heartbeat=")):
		slog.Debug("backend heartbeat", "counter", string(line[len("heartbeat="):]))
	case bytes.HasPrefix(line, []byte("status=")):
		h.applyStatus(line[len("status="):])
	case bytes.HasPrefix(line, []byte("error=")):
		slog.Warn("backend error", "message", string(line[len("error="):]))
		return VerdictFail
	case bytes.HasPrefix(line, []byte("reconnect=")):
		slog.Info("backend requests reconnect", "reason", string(line[len("reconnect="):]))
		return VerdictReconnect
	default:
		slog.Debug("backend line ignored", "line", string(line))
	}
	return VerdictOK
}

type statusEntry struct {
	Ch     int    `json:"ch"`
	Server string `json:"server"`
	Job    string `json:"job"`
	State  string `json:"state"`
	Result string `json:"result"`
	Time   int32  `json:"time"`
}

// applyStatus parses a status payload into the registry. A malformed
// payload is logged and skipped; the stream itself stays usable.
func (h *RealtimeHandler) applyStatus(payload []byte) {
	var entries []statusEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		slog.Warn("backend status unparseable", "error", err)
		return
	}
	for _, e := range entries {
		h.registry.AddInfo(jenkins.Info{
			Result: jenkins.ParseResult(e.Result),
			State:  jenkins.ParseState(e.State),
			Job:    e.Job,
			Server: e.Server,
			Time:   e.Time,
		})
	}
	slog.Debug("backend status applied", "jobs", len(entries))
}

// IsOkay implements Handler: the session is healthy while connected and the
// stream has produced bytes within the watchdog window.
func (h *RealtimeHandler) IsOkay() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected && time.Since(h.lastRecv) < h.watchdog
}

// Disconnect implements Handler.
func (h *RealtimeHandler) Disconnect() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = false
	h.buf = nil
}
