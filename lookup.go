package ddns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"

	"github.com/miekg/dns"
)

// SystemLookup reads published addresses through the host's resolver.
// Answers may be cached by the resolver and lag behind a recent update.
func SystemLookup() Lookup {
	return systemLookup{resolver: net.DefaultResolver}
}

type systemLookup struct {
	resolver *net.Resolver
}

func (l systemLookup) LookupA(ctx context.Context, host string) ([]netip.Addr, error) {
	addrs, err := l.resolver.LookupNetIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	for i, a := range addrs {
		addrs[i] = a.Unmap()
	}
	return addrs, nil
}

// NameserverLookup reads published addresses by querying server directly, bypassing any local cache.
// server is a host or host:port; port 53 is assumed when none is given.
//
// Pointing this at one of the zone's authoritative nameservers shows an update as soon as the provider publishes it.
func NameserverLookup(server string) Lookup {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return nameserverLookup{server: server}
}

type nameserverLookup struct {
	server string
}

func (l nameserverLookup) LookupA(ctx context.Context, host string) ([]netip.Addr, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)

	c := new(dns.Client)
	r, _, err := c.ExchangeContext(ctx, m, l.server)
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", l.server, err)
	}
	if r.Truncated {
		c.Net = "tcp"
		if r, _, err = c.ExchangeContext(ctx, m, l.server); err != nil {
			return nil, fmt.Errorf("error querying %s over tcp: %w", l.server, err)
		}
	}
	if r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("bad return code from %s: %s", l.server, dns.RcodeToString[r.Rcode])
	}

	var addrs []netip.Addr
	for _, ans := range r.Answer {
		switch v := ans.(type) {
		case *dns.A:
			if a, ok := netip.AddrFromSlice(v.A); ok {
				addrs = append(addrs, a.Unmap())
			}
		}
	}
	if len(addrs) == 0 {
		return nil, errors.New("no A records in answer")
	}
	return addrs, nil
}
