package station

import (
	"context"
	"log/slog"
	"net"
	"net/netip"
	"time"
)

// ConnectStatus is the link state of the local station.
type ConnectStatus int

const (
	StatusIdle ConnectStatus = iota
	StatusConnecting
	StatusWrongPassword
	StatusNoAPFound
	StatusConnectFail
	StatusGotIP
)

func (s ConnectStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusConnecting:
		return "connecting"
	case StatusWrongPassword:
		return "wrong password"
	case StatusNoAPFound:
		return "AP not found"
	case StatusConnectFail:
		return "connect failed"
	case StatusGotIP:
		return "got IP"
	default:
		return "unknown"
	}
}

// Info describes the station's current network identity.
type Info struct {
	SSID    string
	IP      netip.Addr
	Netmask netip.Addr
	Gateway netip.Addr
	MAC     net.HardwareAddr
}

// Station reports the local network link. Implementations must be safe for
// concurrent use.
type Station interface {
	Status() (ConnectStatus, Info)
}

// pollInterval is how often the probe re-checks the link. It also bounds how
// long WaitOnline can go without observing context cancellation.
const pollInterval = 100 * time.Millisecond

// IsOnline reports whether the station is usable: connect status "got IP"
// and a non-zero address.
func IsOnline(st Station) bool {
	status, info := st.Status()
	return online(status, info)
}

func online(status ConnectStatus, info Info) bool {
	return status == StatusGotIP && info.IP.IsValid() && !info.IP.IsUnspecified()
}

// WaitOnline polls the station every 100 ms until it is online or the
// timeout elapses. It logs on every status change and every 50th poll, and
// returns the station info captured at the moment the link came up.
func WaitOnline(ctx context.Context, st Station, timeout time.Duration) (Info, bool) {
	start := time.Now()
	deadline := start.Add(timeout)
	last := ConnectStatus(-1)

	for n := 0; ; n++ {
		status, info := st.Status()
		if online(status, info) {
			slog.InfoContext(ctx, "station online",
				"after", time.Since(start).Round(time.Millisecond),
				"ssid", info.SSID,
				"ip", info.IP, "mask", info.Netmask, "gw", info.Gateway)
			return info, true
		}
		if status != last || n%50 == 0 {
			slog.DebugContext(ctx, "waiting for station",
				"status", status, "remaining", time.Until(deadline).Round(time.Millisecond))
			last = status
		}
		if !time.Now().Before(deadline) {
			return Info{}, false
		}
		select {
		case <-ctx.Done():
			return Info{}, false
		case <-time.After(pollInterval):
		}
	}
}
