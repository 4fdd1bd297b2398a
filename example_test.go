package ddns_test

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"time"

	"github.com/Travis-Britz/gandi-ddns"
)

func ExampleNew() {
	c, err := ddns.New(
		"example.com",
		ddns.UsingGandi(os.Getenv("GANDI_API_KEY")),
		ddns.WithSubdomains("home", "vpn"),
		ddns.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))),
		ddns.UsingHTTPClient(http.DefaultClient),
	)
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}
	// run once:
	if _, err := c.RunDDNS(context.Background()); err != nil {
		log.Fatalf("ddns update failed: %s", err)
	}
}

func ExampleWebResolver() {
	// I'm not vouching for these services, but they do return the IP of the client connection.
	// If possible, run your own and provide the URL here instead.
	r := ddns.WebResolver(
		"https://checkip.amazonaws.com/",
		"https://ipv4.icanhazip.com/", // operated by Cloudflare since ~2021
		"https://ipinfo.io/ip",
	)
	ddnsClient, err := ddns.New(
		"example.com",
		ddns.UsingGandi(os.Getenv("GANDI_API_KEY")),
		ddns.WithSubdomains("home"),
		ddns.UsingResolver(r),
	)
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}
	report, err := ddnsClient.RunDDNS(context.Background())
	if err != nil {
		log.Fatalf("ddns update failed: %s", err)
	}
	log.Printf("%d records updated", report.Count(ddns.Updated))
}

func ExampleRunDaemon() {
	ddnsClient, err := ddns.New("example.com",
		ddns.UsingGandi(os.Getenv("GANDI_API_KEY")),
		ddns.WithSubdomains(ddns.Apex, "www"),
		ddns.UsingNameserver("ns-110-a.gandi.net"),
	)
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}

	// run every 5 minutes and stop after an hour:
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
	defer cancel()
	ddns.RunDaemon(ctx, ddnsClient, ddns.DefaultInterval, nil)
}

func ExampleInterfaceResolver() {
	resolver := ddns.InterfaceResolver("ppp0")
	ddnsClient, err := ddns.New("example.com",
		ddns.UsingGandi(os.Getenv("GANDI_API_KEY")),
		ddns.WithSubdomains("home"),
		ddns.UsingResolver(resolver),
	)
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}
	if _, err := ddnsClient.RunDDNS(context.Background()); err != nil {
		log.Fatalf("ddns update failed: %s", err)
	}
}

func ExampleResolverFunc() {
	fn := func(ctx context.Context) (netip.Addr, error) {
		select {
		case <-ctx.Done():
			return netip.Addr{}, ctx.Err()
		case <-time.After(100 * time.Millisecond): // simulating some lookup method
			return netip.ParseAddr("203.0.113.10")
		}
	}
	ddnsClient, err := ddns.New("example.com",
		ddns.UsingGandi(os.Getenv("GANDI_API_KEY")),
		ddns.WithSubdomains("home"),
		ddns.UsingResolver(ddns.ResolverFunc(fn)),
	)
	if err != nil {
		log.Fatalf("error creating ddns client: %s", err)
	}
	if _, err := ddnsClient.RunDDNS(context.Background()); err != nil {
		log.Fatalf("ddns update failed: %s", err)
	}
}
