// Package wifi runs the connection supervisor, the loop that stitches the
// other pieces together: the station link, the backend bootstrap, the
// session pump and the retry policy.
//
// # States
//
// The supervisor is a four-state machine:
//
//   - OFFLINE: no usable link. Wait for the station to come up, then move
//     to ONLINE. Give up after a timeout and move to FAIL.
//   - ONLINE: link up, not connected. Assemble the request URL, bootstrap
//     a backend session and move to CONNECTED, or to FAIL on any error.
//   - CONNECTED: pump the session until it ends. A lost link moves to
//     OFFLINE, a server-requested reconnect straight back to ONLINE
//     (no backoff), anything else to FAIL.
//   - FAIL: play the failure cues, wait out the backoff and retry.
//
// Every transition is logged as a from/to pair. The loop yields briefly
// after each state body so a misbehaving body cannot spin it hot.
//
// # Backoff
//
// The retry wait depends on how the previous connection died. If it had
// been up for longer than the stable threshold the failure is treated as
// a blip and the short wait applies; failing again quickly earns the slow
// wait. The countdown runs in one-second steps, logs progress every ten
// seconds (every second once below ten) and plays a tick cue for the
// final three seconds.
//
// # Concurrency
//
// Run owns the whole lifecycle on its caller's goroutine and holds the
// only reference to the live session, so no connection can outlive the
// state that created it. State and MonStatus are safe to call from other
// goroutines.
package wifi
