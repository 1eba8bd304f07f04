package station

import (
	"context"
	"net"
	"net/netip"
	"strings"
	"sync"
	"time"
)

// NetStation reads the link state from the operating system. With an empty
// interface name it follows the first up, non-loopback interface carrying an
// IPv4 address.
//
// The wrong-password and AP-not-found states of a WiFi join are not visible
// from here; a host interface reports idle, connecting or got-IP.
type NetStation struct {
	iface string

	mu     sync.Mutex
	ssid   string
	ssidIP netip.Addr // address the cached SSID was read under
}

var _ Station = (*NetStation)(nil)

// NewNetStation builds a station bound to the named interface, or to
// whichever interface is usable when name is empty.
func NewNetStation(name string) *NetStation {
	return &NetStation{iface: name}
}

// InterfaceName returns the name of the interface the station watches,
// resolving the automatic pick. Scan mode needs a concrete name for iw(8).
func (s *NetStation) InterfaceName() (string, error) {
	ifc, err := s.pick()
	if err != nil {
		return "", err
	}
	return ifc.Name, nil
}

// Status implements Station.
func (s *NetStation) Status() (ConnectStatus, Info) {
	ifc, err := s.pick()
	if err != nil {
		return StatusConnectFail, Info{}
	}
	if ifc.Flags&net.FlagUp == 0 {
		return StatusIdle, Info{}
	}
	ip, mask, ok := ifaceAddr(ifc)
	if !ok {
		return StatusConnecting, Info{}
	}

	info := Info{IP: ip, Netmask: mask, MAC: ifc.HardwareAddr}
	info.Gateway, _ = defaultGateway(ifc.Index)
	info.SSID = s.ssidFor(ifc.Name, ip)
	return StatusGotIP, info
}

// pick resolves the interface to inspect. In auto mode it prefers an up
// interface with an IPv4 address, then any up interface, then any
// non-loopback one.
func (s *NetStation) pick() (*net.Interface, error) {
	if s.iface != "" {
		return net.InterfaceByName(s.iface)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var up, down *net.Interface
	for i := range ifaces {
		ifc := &ifaces[i]
		if ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ifc.Flags&net.FlagUp == 0 {
			if down == nil {
				down = ifc
			}
			continue
		}
		if _, _, ok := ifaceAddr(ifc); ok {
			return ifc, nil
		}
		if up == nil {
			up = ifc
		}
	}
	if up != nil {
		return up, nil
	}
	if down != nil {
		return down, nil
	}
	return nil, net.ErrClosed
}

// ssidFor returns the wireless network name, cached per address so that the
// iw(8) lookup does not run on every 100 ms poll. Wired interfaces cache an
// empty name the same way.
func (s *NetStation) ssidFor(ifname string, ip netip.Addr) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ssidIP == ip {
		return s.ssid
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ssid := ""
	if out, err := iwOutput(ctx, "dev", ifname, "link"); err == nil {
		ssid = parseLinkSSID(out)
	}
	s.ssid = ssid
	s.ssidIP = ip
	return ssid
}

func parseLinkSSID(out string) string {
	for _, line := range strings.Split(out, "\n") {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, "SSID: ") {
			return strings.TrimPrefix(t, "SSID: ")
		}
	}
	return ""
}

// ifaceAddr returns the interface's first global IPv4 address and netmask.
func ifaceAddr(ifc *net.Interface) (ip, mask netip.Addr, ok bool) {
	addrs, err := ifc.Addrs()
	if err != nil {
		return netip.Addr{}, netip.Addr{}, false
	}
	for _, a := range addrs {
		ipnet, isNet := a.(*net.IPNet)
		if !isNet {
			continue
		}
		ip4 := ipnet.IP.To4()
		if ip4 == nil || ipnet.IP.IsLinkLocalUnicast() {
			continue
		}
		addr := netip.AddrFrom4([4]byte(ip4))
		m := netip.Addr{}
		if len(ipnet.Mask) == 4 {
			m = netip.AddrFrom4([4]byte(ipnet.Mask))
		}
		return addr, m, true
	}
	return netip.Addr{}, netip.Addr{}, false
}
