package backend

// Verdict is the protocol handler's ruling on a received chunk.
type Verdict int

const (
	VerdictOK Verdict = iota
	VerdictFail
	VerdictReconnect
)

func (v Verdict) String() string {
	switch v {
	case VerdictFail:
		return "fail"
	case VerdictReconnect:
		return "reconnect"
	default:
		return "ok"
	}
}

// Handler consumes the backend stream. Connect receives the body prefix
// from the bootstrap response and accepts or rejects the session; Handle
// receives each later chunk in network order. Chunks are only valid for the
// duration of the call. IsOkay lets the handler end a session that has gone
// quiet, and Disconnect is called exactly once on every way out of one.
//
// Implementations must be safe for concurrent use; other parts of the
// program may inspect them while the pump runs.
type Handler interface {
	Connect(prefix []byte) bool
	Handle(chunk []byte) Verdict
	IsOkay() bool
	Disconnect()
}
