package backend

import (
	"net/netip"
	"testing"
)

func TestQueryEncode(t *testing.T) {
	q := Query{
		ClientID: "d8a01d4b2c6e",
		Name:     "office-lamp",
		SSID:     "workshop",
		IP:       netip.MustParseAddr("192.168.1.20"),
		Version:  "1.4.0",
		MaxCh:    20,
	}
	want := "cmd=realtime;ascii=1;client=d8a01d4b2c6e;name=office-lamp;stassid=workshop;staip=192.168.1.20;version=1.4.0;maxch=20"
	if got := q.Encode(); got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestQueryEncode_ZeroIP(t *testing.T) {
	got := Query{ClientID: "x", MaxCh: 8}.Encode()
	want := "cmd=realtime;ascii=1;client=x;name=;stassid=;staip=;version=;maxch=8"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

// The assembled URL must decompose back into the same query, since the
// bootstrap re-splits it before building the request.
func TestQueryEncode_Redecomposes(t *testing.T) {
	q := Query{
		ClientID: "abc123",
		Name:     "lamp",
		SSID:     "net",
		IP:       netip.MustParseAddr("10.1.2.3"),
		Version:  "dev",
		MaxCh:    20,
	}
	full := "https://user:pw@ci.example.com/status.pl" + "?" + q.Encode()

	parts, err := SplitURL(full)
	if err != nil {
		t.Fatalf("SplitURL error: %v", err)
	}
	if parts.Query != q.Encode() {
		t.Fatalf("query after split = %q, want %q", parts.Query, q.Encode())
	}
	if parts.Host != "ci.example.com" || parts.Path != "status.pl" || parts.Auth != "user:pw" {
		t.Fatalf("unexpected parts: %+v", parts)
	}
}
