package ddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

const (
	// DefaultInterval is the time between two cycles of RunDaemon.
	DefaultInterval = 5 * time.Minute
	// MinInterval is the shortest interval RunDaemon accepts.
	MinInterval = 1 * time.Minute
	// DefaultTimeout bounds every outbound call made during a cycle.
	DefaultTimeout = 10 * time.Second
)

// DefaultIPServices are plain-text IP echo services used when no resolver is configured.
var DefaultIPServices = []string{
	"https://api.ipify.org/",
	"https://checkip.amazonaws.com/",
	"https://ipv4.icanhazip.com/",
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// Apex is the subdomain label that names the zone apex itself.
const Apex = "@"

func New(domain string, options ...Option) (DDNSClient, error) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return nil, &ConfigError{Field: "domain", Reason: "cannot be empty"}
	}
	if !strings.Contains(domain, ".") {
		return nil, &ConfigError{Field: "domain", Reason: "must have at least one dot"}
	}
	c := &client{
		Resolver:  WebResolver(DefaultIPServices...),
		Lookup:    SystemLookup(),
		reachable: Reachable,
		logger:    discard,
		timeout:   DefaultTimeout,
		domain:    domain,
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("ddns.New: option %d returned an error: %w", i, err)
		}
	}

	if c.Provider == nil {
		return nil, &ConfigError{Field: "provider", Reason: "no DNS provider was registered - use ddns.UsingGandi or ddns.UsingProvider"}
	}
	subs, err := normalizeSubdomains(c.subdomains)
	if err != nil {
		return nil, err
	}
	c.subdomains = subs

	// settings are pushed down once every dependency is registered, so option order does not matter
	if err := c.configure(); err != nil {
		return nil, err
	}
	return c, nil
}

// Option configures a client created by New.
type Option func(*client) error

// UsingGandi registers Gandi LiveDNS as the provider, authenticated with the given API key.
func UsingGandi(key string) Option {
	return func(c *client) (err error) {
		if c.Provider, err = newGandiProvider(key); err != nil {
			return fmt.Errorf("ddns.UsingGandi: error creating gandi DNS provider: %w", err)
		}
		return nil
	}
}

// UsingProvider registers a custom Provider.
func UsingProvider(p Provider) Option {
	return func(c *client) error {
		c.Provider = p
		return nil
	}
}

// UsingResolver sets the source of the public IP. A nil resolver restores the default web resolver.
func UsingResolver(resolver Resolver) Option {
	return func(c *client) error {
		if resolver == nil {
			resolver = WebResolver(DefaultIPServices...)
		}
		c.Resolver = resolver
		return nil
	}
}

func UsingWebResolver(serviceURL ...string) Option {
	return func(c *client) error {
		if len(serviceURL) == 0 {
			return &ConfigError{Field: "ip_services", Reason: "at least one service URL is required"}
		}
		c.Resolver = WebResolver(serviceURL...)
		return nil
	}
}

// UsingLookup sets how published addresses are read. A nil lookup restores the system resolver.
func UsingLookup(lookup Lookup) Option {
	return func(c *client) error {
		if lookup == nil {
			lookup = SystemLookup()
		}
		c.Lookup = lookup
		return nil
	}
}

// UsingNameserver reads published addresses directly from the given nameserver instead of the system resolver.
func UsingNameserver(server string) Option {
	return func(c *client) error {
		if server == "" {
			return &ConfigError{Field: "nameserver", Reason: "cannot be empty"}
		}
		c.Lookup = NameserverLookup(server)
		return nil
	}
}

// UsingReachabilityCheck replaces the check run against the provider host at the start of every cycle.
func UsingReachabilityCheck(check func(ctx context.Context, host string) error) Option {
	return func(c *client) error {
		if check == nil {
			check = Reachable
		}
		c.reachable = check
		return nil
	}
}

// WithSubdomains sets the records to keep up to date. Use Apex for the domain itself.
func WithSubdomains(names ...string) Option {
	return func(c *client) error {
		c.subdomains = append(c.subdomains, names...)
		return nil
	}
}

// WithEndpoint overrides the Gandi API base URL. New fails if it is combined with UsingProvider.
func WithEndpoint(endpoint string) Option {
	return func(c *client) error {
		c.endpoint = endpoint
		return nil
	}
}

// WithTTL sets the TTL in seconds sent with every Gandi record update. Zero leaves the provider default.
// New fails if a non-zero TTL is combined with UsingProvider.
func WithTTL(ttl int) Option {
	return func(c *client) error {
		if ttl < 0 {
			return &ConfigError{Field: "ttl", Reason: "cannot be negative"}
		}
		c.ttl = ttl
		return nil
	}
}

// WithTimeout bounds each outbound call. Zero or less restores DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) error {
		if d <= 0 {
			d = DefaultTimeout
		}
		c.timeout = d
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *client) error {
		if logger == nil {
			logger = discard
		}
		c.logger = logger
		return nil
	}
}

func UsingHTTPClient(httpclient *http.Client) Option {
	return func(c *client) error {
		if httpclient == nil {
			httpclient = http.DefaultClient
		}
		c.httpClient = httpclient
		return nil
	}
}

func (c *client) configure() error {
	type setLogger interface {
		SetLogger(*slog.Logger)
	}
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}

	if p, ok := c.Provider.(*gandiProvider); ok {
		if err := p.configure(c.endpoint, c.ttl); err != nil {
			return err
		}
	} else {
		if c.endpoint != "" {
			return &ConfigError{Field: "endpoint", Reason: "only applies to ddns.UsingGandi"}
		}
		if c.ttl != 0 {
			return &ConfigError{Field: "ttl", Reason: "only applies to ddns.UsingGandi"}
		}
	}

	for _, dep := range []any{c.Provider, c.Resolver, c.Lookup} {
		if l, ok := dep.(setLogger); ok {
			l.SetLogger(c.logger)
		}
		if hc, ok := dep.(setHTTPClient); ok && c.httpClient != nil {
			hc.SetHTTPClient(c.httpClient)
		}
	}
	return nil
}

func normalizeSubdomains(names []string) ([]string, error) {
	var subs []string
	seen := map[string]bool{}
	for i, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			return nil, &ConfigError{Field: "subdomain", Reason: fmt.Sprintf("entry %d is empty", i)}
		}
		if strings.ContainsAny(n, "/ ") {
			return nil, &ConfigError{Field: "subdomain", Reason: fmt.Sprintf("%q is not a valid record name", n)}
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		subs = append(subs, n)
	}
	if len(subs) == 0 {
		return nil, &ConfigError{Field: "subdomain", Reason: "at least one subdomain is required"}
	}
	return subs, nil
}

type DDNSClient interface {
	RunDDNS(ctx context.Context) (Report, error)
}

type client struct {
	Resolver
	Provider
	Lookup
	reachable  func(ctx context.Context, host string) error
	logger     *slog.Logger
	httpClient *http.Client
	endpoint   string
	ttl        int
	timeout    time.Duration
	domain     string
	subdomains []string
}

// RunDDNS runs one cycle: it checks that the provider is reachable, looks up the zone,
// and updates every subdomain whose published address differs from the public IP.
//
// Lookup failures for a single subdomain are recorded in the report and do not stop the cycle.
// The returned error joins every failure of the cycle.
func (c *client) RunDDNS(ctx context.Context) (Report, error) {
	report := Report{Domain: c.domain}

	if host := c.Host(); host != "" {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.reachable(cctx, host)
		cancel()
		if err != nil {
			if !errors.Is(err, ErrUnreachable) {
				err = fmt.Errorf("%w: %w", ErrUnreachable, err)
			}
			return report, err
		}
	}

	zctx, cancel := context.WithTimeout(ctx, c.timeout)
	zone, err := c.ZoneID(zctx, c.domain)
	cancel()
	if err != nil {
		return report, fmt.Errorf("unable to get zone ID for %s: %w", c.domain, err)
	}
	report.Zone = zone
	c.logger.Debug("got zone ID", "domain", c.domain, "zone", zone)

	public := c.discoverOnce()
	for _, sub := range c.subdomains {
		r, changed := c.detect(ctx, sub, public)
		if changed {
			r = c.update(ctx, zone, r)
		}
		report.Results = append(report.Results, r)
	}
	return report, report.Err()
}

func (c *client) hostname(sub string) string {
	if sub == Apex {
		return c.domain
	}
	return sub + "." + c.domain
}

// detect compares the published address of one subdomain with the public IP.
// changed is true only if both were read and the public IP is not among the published addresses.
func (c *client) detect(ctx context.Context, sub string, public func(context.Context) (netip.Addr, error)) (r Result, changed bool) {
	r = Result{Subdomain: sub, Host: c.hostname(sub), Outcome: NoChange}
	c.logger.Debug("checking record", "host", r.Host)

	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	published, err := c.LookupA(lctx, r.Host)
	cancel()
	if err != nil {
		r.Outcome, r.Err = Failed, &ResolutionError{Host: r.Host, Err: err}
		c.logger.Debug("unable to resolve published address", "host", r.Host, "error", err)
		return r, false
	}
	r.Published = published
	c.logger.Debug("got published addresses", "host", r.Host, "addrs", published)

	addr, err := public(ctx)
	if err != nil {
		r.Outcome, r.Err = Failed, err
		return r, false
	}
	r.Public = addr

	for _, p := range published {
		if p.Unmap() == addr {
			c.logger.Debug("record is up to date", "host", r.Host, "addr", addr)
			return r, false
		}
	}
	return r, true
}

func (c *client) update(ctx context.Context, zone string, r Result) Result {
	c.logger.Info("updating record", "host", r.Host, "from", r.Published, "to", r.Public)
	uctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.SetRecord(uctx, zone, r.Subdomain, r.Public); err != nil {
		r.Outcome, r.Err = Failed, fmt.Errorf("error updating %s to %s: %w", r.Host, r.Public, err)
		return r
	}
	r.Outcome = Updated
	return r
}

// discoverOnce returns a function that asks the resolver for the public IP on its first call
// and replays that answer afterwards, so a cycle queries the discovery service at most once.
func (c *client) discoverOnce() func(context.Context) (netip.Addr, error) {
	var (
		done bool
		addr netip.Addr
		err  error
	)
	return func(ctx context.Context) (netip.Addr, error) {
		if done {
			return addr, err
		}
		done = true
		dctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		addr, err = c.Resolve(dctx)
		if err == nil && !addr.Unmap().Is4() {
			err = fmt.Errorf("%s is not an IPv4 address", addr)
		}
		if err != nil {
			err = &DiscoveryError{Err: err}
			c.logger.Debug("unable to determine public IP", "error", err)
			return addr, err
		}
		addr = addr.Unmap()
		c.logger.Debug("got public IP", "addr", addr)
		return addr, nil
	}
}

// RunDaemon runs a cycle immediately and then once per interval until ctx is done.
// Cycle errors are logged and never stop the loop.
//
// A nil logger for a DDNSClient supplied by this library means the client's own logger is used.
// Otherwise the default is to discard log messages.
func RunDaemon(ctx context.Context, ddnsClient DDNSClient, interval time.Duration, logger *slog.Logger) {
	if interval < MinInterval {
		interval = MinInterval
	}
	if logger == nil {
		if c, ok := ddnsClient.(*client); ok && c.logger != nil {
			logger = c.logger
		} else {
			logger = discard
		}
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	runLoop(ctx, ddnsClient, ticker.C, logger)
}

func runLoop(ctx context.Context, ddnsClient DDNSClient, ticks <-chan time.Time, logger *slog.Logger) {
	for ctx.Err() == nil {
		report, err := ddnsClient.RunDDNS(ctx)
		report.Log(logger)
		// failures of checked records were already logged by report.Log
		if err != nil && len(report.Results) == 0 {
			logger.Error("ddns cycle failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticks:
		}
	}
}
