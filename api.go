package ddns

import (
	"context"
	"net/netip"
)

// Resolver reports the public IPv4 address of this host.
type Resolver interface {
	Resolve(context.Context) (netip.Addr, error)
}

// ResolverFunc adapts an ordinary function to the Resolver interface.
type ResolverFunc func(context.Context) (netip.Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context) (netip.Addr, error) {
	return f(ctx)
}

// Lookup reads the IPv4 addresses currently published for a hostname.
type Lookup interface {
	LookupA(ctx context.Context, host string) ([]netip.Addr, error)
}

// LookupFunc adapts an ordinary function to the Lookup interface.
type LookupFunc func(ctx context.Context, host string) ([]netip.Addr, error)

func (f LookupFunc) LookupA(ctx context.Context, host string) ([]netip.Addr, error) {
	return f(ctx, host)
}

// Provider manages A records in a hosted DNS zone.
type Provider interface {
	// Host is the API hostname, used to check reachability before each cycle.
	// An empty string disables the check.
	Host() string
	ZoneID(ctx context.Context, domain string) (string, error)
	SetRecord(ctx context.Context, zoneID, name string, addr netip.Addr) error
}
