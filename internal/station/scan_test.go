package station

import "testing"

const scanFixture = `BSS d8:0d:17:aa:bb:cc(on wlan0) -- associated
	last seen: 304.368s [boottime]
	TSF: 434595269330 usec (5d, 00:43:15)
	freq: 2437
	beacon interval: 100 TUs
	capability: ESS Privacy ShortSlotTime (0x0411)
	signal: -41.00 dBm
	Information elements from Probe Response frame:
	SSID: chookies
	Supported rates: 1.0* 2.0* 5.5* 11.0* 18.0 24.0 36.0 54.0
	DS Parameter set: channel 6
	RSN:	 * Version: 1
		 * Group cipher: CCMP
		 * Pairwise ciphers: CCMP
		 * Authentication suites: PSK
BSS 5c:49:79:11:22:33(on wlan0)
	freq: 2412
	capability: ESS (0x0401)
	signal: -67.00 dBm
	SSID: cafe-guest
BSS aa:bb:cc:dd:ee:ff(on wlan0)
	freq: 5180
	capability: ESS Privacy (0x0511)
	signal: -72.00 dBm
	SSID: \x00\x00\x00\x00\x00\x00
	WPA:	 * Version: 1
	RSN:	 * Version: 1
BSS 11:22:33:44:55:66(on wlan0)
	freq: 2462
	capability: ESS Privacy (0x0431)
	signal: -80.00 dBm
	SSID: legacy-net
`

func TestParseScan(t *testing.T) {
	aps := parseScan(scanFixture)
	if len(aps) != 4 {
		t.Fatalf("parsed %d access points, want 4", len(aps))
	}

	want := []AccessPoint{
		{SSID: "chookies", BSSID: "d8:0d:17:aa:bb:cc", Channel: 6, RSSI: -41, Auth: AuthWPA2PSK},
		{SSID: "cafe-guest", BSSID: "5c:49:79:11:22:33", Channel: 1, RSSI: -67, Auth: AuthOpen},
		{SSID: "", BSSID: "aa:bb:cc:dd:ee:ff", Channel: 36, RSSI: -72, Auth: AuthWPAWPA2PSK, Hidden: true},
		{SSID: "legacy-net", BSSID: "11:22:33:44:55:66", Channel: 11, RSSI: -80, Auth: AuthWEP},
	}
	for i, w := range want {
		if aps[i] != w {
			t.Fatalf("ap[%d] = %+v, want %+v", i, aps[i], w)
		}
	}
}

func TestParseScan_Empty(t *testing.T) {
	if aps := parseScan(""); len(aps) != 0 {
		t.Fatalf("parseScan(empty) = %v, want none", aps)
	}
}

func TestFreqToChannel(t *testing.T) {
	tests := []struct {
		freq, want int
	}{
		{2412, 1},
		{2437, 6},
		{2472, 13},
		{2484, 14},
		{5180, 36},
		{5825, 165},
		{0, 0},
		{900, 0},
	}
	for _, tt := range tests {
		if got := freqToChannel(tt.freq); got != tt.want {
			t.Fatalf("freqToChannel(%d) = %d, want %d", tt.freq, got, tt.want)
		}
	}
}

func TestAuthStrings(t *testing.T) {
	want := map[Auth]string{
		AuthOpen:       "open",
		AuthWEP:        "wep",
		AuthWPAPSK:     "wpa-psk",
		AuthWPA2PSK:    "wpa2-psk",
		AuthWPAWPA2PSK: "wpa/wpa2-psk",
	}
	for a, s := range want {
		if a.String() != s {
			t.Fatalf("Auth(%d).String() = %q, want %q", a, a.String(), s)
		}
	}
}
