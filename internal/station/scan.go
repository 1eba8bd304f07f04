package station

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Auth is the security mode advertised by an access point.
type Auth int

const (
	AuthOpen Auth = iota
	AuthWEP
	AuthWPAPSK
	AuthWPA2PSK
	AuthWPAWPA2PSK
)

func (a Auth) String() string {
	switch a {
	case AuthWEP:
		return "wep"
	case AuthWPAPSK:
		return "wpa-psk"
	case AuthWPA2PSK:
		return "wpa2-psk"
	case AuthWPAWPA2PSK:
		return "wpa/wpa2-psk"
	default:
		return "open"
	}
}

// AccessPoint is one network found by a wireless survey.
type AccessPoint struct {
	SSID    string
	BSSID   string
	Channel int
	RSSI    int // dBm
	Auth    Auth
	Hidden  bool
}

// Scan runs one wireless survey on the given interface using iw(8).
func Scan(ctx context.Context, iface string) ([]AccessPoint, error) {
	out, err := iwOutput(ctx, "dev", iface, "scan")
	if err != nil {
		return nil, err
	}
	return parseScan(out), nil
}

func iwOutput(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "iw", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("iw %s: %w (%s)", strings.Join(args, " "), err, msg)
		}
		return "", fmt.Errorf("iw %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// parseScan turns `iw dev <if> scan` output into access points. One "BSS"
// line opens each block; the indented lines under it carry the fields.
func parseScan(out string) []AccessPoint {
	var (
		aps                 []AccessPoint
		cur                 *AccessPoint
		wpa1, wpa2, privacy bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Auth = authFrom(wpa1, wpa2, privacy)
		// Hidden networks show an empty SSID or escaped NUL bytes.
		if cur.SSID == "" || strings.Contains(cur.SSID, `\x00`) {
			cur.SSID = ""
			cur.Hidden = true
		}
		aps = append(aps, *cur)
		cur, wpa1, wpa2, privacy = nil, false, false, false
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "BSS ") {
			flush()
			b := strings.TrimPrefix(line, "BSS ")
			if i := strings.IndexAny(b, "( "); i >= 0 {
				b = b[:i]
			}
			cur = &AccessPoint{BSSID: b}
			continue
		}
		if cur == nil {
			continue
		}
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "freq: "):
			if f, err := strconv.ParseFloat(strings.TrimPrefix(t, "freq: "), 64); err == nil {
				cur.Channel = freqToChannel(int(f))
			}
		case strings.HasPrefix(t, "signal: "):
			v := strings.TrimSuffix(strings.TrimPrefix(t, "signal: "), " dBm")
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				cur.RSSI = int(f)
			}
		case strings.HasPrefix(t, "SSID: "):
			cur.SSID = strings.TrimPrefix(t, "SSID: ")
		case strings.HasPrefix(t, "capability:"):
			privacy = strings.Contains(t, "Privacy")
		case strings.HasPrefix(t, "WPA:"):
			wpa1 = true
		case strings.HasPrefix(t, "RSN:"):
			wpa2 = true
		}
	}
	flush()
	return aps
}

func authFrom(wpa1, wpa2, privacy bool) Auth {
	switch {
	case wpa1 && wpa2:
		return AuthWPAWPA2PSK
	case wpa2:
		return AuthWPA2PSK
	case wpa1:
		return AuthWPAPSK
	case privacy:
		return AuthWEP
	default:
		return AuthOpen
	}
}

// freqToChannel maps a carrier frequency in MHz to its channel number.
// Unknown bands map to 0.
func freqToChannel(freq int) int {
	switch {
	case freq == 2484:
		return 14
	case freq >= 2412 && freq <= 2472:
		return (freq - 2407) / 5
	case freq >= 5000 && freq <= 5905:
		return (freq - 5000) / 5
	case freq >= 4910 && freq <= 4980:
		return (freq - 4000) / 5
	default:
		return 0
	}
}
