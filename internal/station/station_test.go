package station

import (
	"context"
	"net/netip"
	"sync"
	"testing"
	"time"
)

// scriptedStation stays in `connecting` for a number of polls before coming
// online with the configured info.
type scriptedStation struct {
	mu    sync.Mutex
	after int
	info  Info
	calls int
}

func (s *scriptedStation) Status() (ConnectStatus, Info) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls > s.after {
		return StatusGotIP, s.info
	}
	return StatusConnecting, Info{}
}

type staticStation struct {
	status ConnectStatus
	info   Info
}

func (s staticStation) Status() (ConnectStatus, Info) { return s.status, s.info }

func TestIsOnline(t *testing.T) {
	addr := netip.MustParseAddr("192.168.1.20")
	tests := []struct {
		name   string
		status ConnectStatus
		ip     netip.Addr
		want   bool
	}{
		{"got ip with address", StatusGotIP, addr, true},
		{"got ip without address", StatusGotIP, netip.Addr{}, false},
		{"got ip with zero address", StatusGotIP, netip.MustParseAddr("0.0.0.0"), false},
		{"connecting with address", StatusConnecting, addr, false},
		{"idle", StatusIdle, netip.Addr{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := staticStation{status: tt.status, info: Info{IP: tt.ip}}
			if got := IsOnline(st); got != tt.want {
				t.Fatalf("IsOnline = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitOnline_ComesUp(t *testing.T) {
	want := Info{
		SSID: "lab",
		IP:   netip.MustParseAddr("10.0.0.7"),
	}
	st := &scriptedStation{after: 2, info: want}

	info, ok := WaitOnline(context.Background(), st, 5*time.Second)
	if !ok {
		t.Fatal("WaitOnline = false, want true")
	}
	if info.IP != want.IP || info.SSID != want.SSID {
		t.Fatalf("info = %+v, want %+v", info, want)
	}
}

func TestWaitOnline_Timeout(t *testing.T) {
	st := &scriptedStation{after: 1 << 20}

	start := time.Now()
	_, ok := WaitOnline(context.Background(), st, 250*time.Millisecond)
	if ok {
		t.Fatal("WaitOnline = true, want timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("WaitOnline took %v, want about 250ms", elapsed)
	}
}

func TestWaitOnline_Canceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	st := &scriptedStation{after: 1 << 20}

	start := time.Now()
	_, ok := WaitOnline(ctx, st, time.Minute)
	if ok {
		t.Fatal("WaitOnline = true, want false on cancellation")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("WaitOnline ignored cancellation, took %v", elapsed)
	}
}

func TestParseLinkSSID(t *testing.T) {
	out := "Connected to d8:0d:17:aa:bb:cc (on wlan0)\n" +
		"\tSSID: chookies\n" +
		"\tfreq: 2437\n" +
		"\tsignal: -41 dBm\n"
	if got := parseLinkSSID(out); got != "chookies" {
		t.Fatalf("parseLinkSSID = %q, want chookies", got)
	}
	if got := parseLinkSSID("Not connected.\n"); got != "" {
		t.Fatalf("parseLinkSSID = %q, want empty", got)
	}
}
