package backend

import (
	"fmt"
	"net/netip"
)

// Query carries the fields the device announces when it connects.
type Query struct {
	ClientID string
	Name     string
	SSID     string
	IP       netip.Addr
	Version  string
	MaxCh    int
}

// Encode renders the fixed parameter list in the device's order, with `;`
// separators. Values go in verbatim and are expected to be URL-safe.
func (q Query) Encode() string {
	ip := ""
	if q.IP.IsValid() {
		ip = q.IP.String()
	}
	return fmt.Sprintf("cmd=realtime;ascii=1;client=%s;name=%s;stassid=%s;staip=%s;version=%s;maxch=%d",
		q.ClientID, q.Name, q.SSID, ip, q.Version, q.MaxCh)
}
