package station

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/netip"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"
)

// defaultGateway asks the kernel for the IPv4 default route, preferring one
// leaving through ifindex. A zero Addr with nil error means no default route
// is installed.
func defaultGateway(ifindex int) (netip.Addr, error) {
	c, err := netlink.Dial(unix.NETLINK_ROUTE, nil)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("dial rtnetlink: %w", err)
	}
	defer func() {
		_ = c.Close() //nolint errcheck
	}()

	req := unix.RtMsg{Family: unix.AF_INET}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.NativeEndian, req); err != nil {
		return netip.Addr{}, fmt.Errorf("marshal rtmsg: %w", err)
	}

	msgs, err := c.Execute(netlink.Message{
		Header: netlink.Header{
			Type:  unix.RTM_GETROUTE,
			Flags: netlink.Request | netlink.Dump,
		},
		Data: buf.Bytes(),
	})
	if err != nil {
		return netip.Addr{}, fmt.Errorf("dump routes: %w", err)
	}

	var fallback netip.Addr
	for _, m := range msgs {
		if m.Header.Type == netlink.Done || len(m.Data) < unix.SizeofRtMsg {
			continue
		}
		// Default route: IPv4 with an empty destination prefix.
		if m.Data[0] != unix.AF_INET || m.Data[1] != 0 {
			continue
		}
		gw, oif := routeAttrs(m.Data[unix.SizeofRtMsg:])
		if !gw.IsValid() {
			continue
		}
		if ifindex == 0 || oif == ifindex {
			return gw, nil
		}
		if !fallback.IsValid() {
			fallback = gw
		}
	}
	return fallback, nil
}

// routeAttrs extracts the gateway address and output interface index from a
// route message's attribute list.
func routeAttrs(b []byte) (gw netip.Addr, oif int) {
	ad, err := netlink.NewAttributeDecoder(b)
	if err != nil {
		return netip.Addr{}, 0
	}
	for ad.Next() {
		switch ad.Type() {
		case unix.RTA_GATEWAY:
			if a, ok := netip.AddrFromSlice(ad.Bytes()); ok {
				gw = a
			}
		case unix.RTA_OIF:
			oif = int(ad.Uint32())
		}
	}
	return gw, oif
}
