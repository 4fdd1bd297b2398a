package ddns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// InterfaceResolver constructs a resolver that returns the first IPv4 address reported by the given interfaces.
// If no interfaces are provided then all interfaces will be used.
// Loopback, link-local, private (RFC 1918) and shared (RFC 6598) addresses are always skipped,
// since none of them can be reached from the internet.
//
// This is useful on hosts that hold their public address directly, e.g. a router with a PPPoE link.
func InterfaceResolver(iface ...string) Resolver {
	return interfaceResolver{ifaces: iface}
}

type interfaceResolver struct {
	ifaces []string
}

func (r interfaceResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	var errs []error
	if len(r.ifaces) == 0 {
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			return netip.Addr{}, fmt.Errorf("error getting addresses for interfaces: %w", err)
		}
		if ip, ok := firstIPv4(addrs, &errs); ok {
			return ip, nil
		}
		return netip.Addr{}, errors.Join(append(errs, errors.New("no interface has a usable IPv4 address"))...)
	}

	for _, name := range r.ifaces {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("error getting interface %s by name: %w", name, err))
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			errs = append(errs, fmt.Errorf("error looking up addresses for interface %s: %w", name, err))
			continue
		}
		if ip, ok := firstIPv4(addrs, &errs); ok {
			return ip, nil
		}
	}
	return netip.Addr{}, errors.Join(append(errs, fmt.Errorf("no usable IPv4 address on interfaces %v", r.ifaces))...)
}

var sharedSpace = netip.MustParsePrefix("100.64.0.0/10")

// addr: ip+net:192.168.86.253/24
// addr: ip+net:fd64:9f44:fc30:0:b951:8b16:2812:a227/64
// addr: ip+net:fe80::2cc9:801b:3551:9a43/64
func firstIPv4(addrs []net.Addr, errs *[]error) (netip.Addr, bool) {
	for _, addr := range addrs {
		prefix, err := netip.ParsePrefix(addr.String())
		if err != nil {
			*errs = append(*errs, fmt.Errorf("error parsing local ip %s: %w", addr.String(), err))
			continue
		}
		ip := prefix.Addr().Unmap()
		if !ip.Is4() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsPrivate() || sharedSpace.Contains(ip) {
			continue
		}
		return ip, true
	}
	return netip.Addr{}, false
}
