// Package backend speaks the lamp's wire protocol to the status server.
//
// # Overview
//
// A session has two phases. The bootstrap turns a fresh TCP connection into
// a protocol-ready stream: one fixed POST request, one response buffer, a
// hand-rolled header check, and the left-over body bytes handed to the
// protocol handler as its greeting. The pump then reads the stream chunk by
// chunk and forwards it to the handler until a verdict or an error ends the
// session.
//
// # Architecture
//
// The package is split by phase:
//
//   - url.go: SplitURL breaks the configured URL into host, path, query
//     and credentials
//   - query.go: Query renders the `;`-separated connection parameters
//   - client.go: Client.Dial performs the bootstrap handshake
//   - session.go: Session.Pump is the steady-state read loop
//   - handler.go: the Handler contract between pump and protocol
//   - realtime.go: RealtimeHandler, the production protocol handler
//
// # The bootstrap request
//
// Dial writes exactly one request and never writes again; on success the
// connection's send side is half-closed. The request duplicates the query
// string into the body so servers may read either place:
//
//	POST /<path> HTTP/1.1
//	Host: <host>
//	Authorization: Basic <credentials-or-empty>
//	User-Agent: laempli/<version>
//	Content-Length: <len(query)>
//
//	<query>
//
// The response header must arrive inside the first read: the device parses
// a single buffer and so does this client. The status line is checked
// byte-wise (an HTTP/1.1 prefix, the status code parsed at a fixed offset),
// anything but 200 is fatal, and at least a few bytes of body must follow
// the blank line. No chunked encoding is parsed; after the header the
// stream is byte-opaque.
//
// # Would-block pacing
//
// The device polls a non-blocking socket: every 100 ms while waiting for
// the response (up to 500 tries, about 50 s) and every 23 ms in the pump.
// Here the same cadence comes from short read deadlines, keeping the loop
// responsive to handler health checks and cancellation at the same points.
//
// # Error Handling
//
// Bootstrap failures map onto sentinel errors (ErrDNSFailure, ErrBadStatus
// and friends) so the supervisor can log a reason while treating them all
// the same way: close, release, back off. The pump reduces everything to
// one bit, reconnect or not; the supervisor combines it with the link state
// to pick the next supervisor state.
package backend
