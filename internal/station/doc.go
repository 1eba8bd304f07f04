// Package station watches the local network link.
//
// It answers one question for the supervisor: is this box online, and with
// what address? The Station interface reports a connect status modelled on
// the stages of a wireless join (idle, connecting, got IP, and the failure
// variants), and WaitOnline polls it on a 100 ms cadence until the link
// comes up or a deadline passes.
//
// NetStation is the operating-system implementation. It derives the status
// from interface flags and addresses, reads the default gateway over
// rtnetlink on Linux, and asks iw(8) for the SSID when the interface is
// wireless. Scan runs a one-shot wireless survey, also via iw(8); it backs
// the scanning mode used to site a lamp before configuring it.
package station
