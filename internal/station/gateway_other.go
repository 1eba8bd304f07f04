//go:build !linux

package station

import "net/netip"

func defaultGateway(ifindex int) (netip.Addr, error) {
	return netip.Addr{}, nil
}
