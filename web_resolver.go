package ddns

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebResolver constructs a resolver which uses external web services to look up the public IPv4 address.
//
// Each serviceURL must speak http and return status "200 OK",
// with a valid IPv4 address as the first line of the response body.
// All other responses are considered an error.
//
// If only one serviceURL is given,
// then the resolver will simply return the response.
// If multiple are given,
// then the resolver will request from up to three of them and only return successfully if two of the responses agreed on the IP.
// This approach is taken due to the sensitive nature of having control over DNS records.
//
// Services that may answer over IPv6 should be given by their IPv4-only name, e.g. https://ipv4.icanhazip.com/.
func WebResolver(serviceURL ...string) Resolver {
	return &webResolver{
		api:         resty.New(),
		logger:      discard,
		serviceURLs: serviceURL,
	}
}

type webResolver struct {
	api         *resty.Client
	logger      *slog.Logger
	serviceURLs []string
}

func (wr *webResolver) SetLogger(logger *slog.Logger) { wr.logger = logger }

func (wr *webResolver) SetHTTPClient(httpclient *http.Client) { wr.api = resty.NewWithClient(httpclient) }

// Resolve implements ddns.Resolver.
func (wr *webResolver) Resolve(ctx context.Context) (netip.Addr, error) {
	// todo: round-robin or randomize resolver selection. right now it's just using the first three.
	if len(wr.serviceURLs) == 0 {
		return netip.Addr{}, errors.New("no external IP lookup services were provided")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		addr netip.Addr
		err  error
	}

	useCount := min(3, len(wr.serviceURLs))
	need := min(2, useCount)

	// buffered so that lookups still in flight after an early return never block
	results := make(chan result, useCount)
	for _, u := range wr.serviceURLs[:useCount] {
		go func() {
			r := result{}
			r.addr, r.err = wr.lookup(ctx, u)
			results <- r
		}()
	}

	var errs []error
	votes := map[netip.Addr]int{}
	for range useCount {
		r := <-results
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		votes[r.addr]++
		if votes[r.addr] >= need {
			return r.addr, nil
		}
	}
	if useCount-len(errs) < need {
		return netip.Addr{}, fmt.Errorf("not enough resolvers responded without errors: %w", errors.Join(errs...))
	}
	return netip.Addr{}, fmt.Errorf("IP resolvers did not agree on our IP: %v", votes)
}

func (wr *webResolver) lookup(ctx context.Context, serviceURL string) (netip.Addr, error) {
	// the client normally bounds this call, but this ensures that all calls to resolve will eventually complete
	// even if the user supplied context.Background and an http.Client with no timeout.
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	resp, err := wr.api.R().
		SetContext(ctx).
		SetHeader("Cache-Control", "no-cache").
		Get(serviceURL)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("http request to %s failed: %w", serviceURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return netip.Addr{}, fmt.Errorf("http request to %s returned %s", serviceURL, resp.Status())
	}

	line, _ := bufio.NewReader(bytes.NewReader(resp.Body())).ReadString('\n')
	ip, err := netip.ParseAddr(strings.TrimSpace(line))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("error parsing IP address from %s: %w", serviceURL, err)
	}
	ip = ip.Unmap()
	if !ip.Is4() {
		return netip.Addr{}, fmt.Errorf("%s returned %s, which is not an IPv4 address", serviceURL, ip)
	}
	wr.logger.Debug("public IP service answered", "service", serviceURL, "addr", ip)
	return ip, nil
}
