package ddns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
)

// DefaultEndpoint is the base URL of the Gandi LiveDNS API.
const DefaultEndpoint = "https://dns.api.gandi.net/api/v5"

const headerAPIKey = "X-Api-Key"

func newGandiProvider(key string) (g *gandiProvider, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, &ConfigError{Field: "key", Reason: "API key cannot be empty"}
	}
	g = &gandiProvider{
		key:    key,
		logger: discard,
	}
	if err := g.configure(DefaultEndpoint, 0); err != nil {
		return nil, err
	}
	return g, nil
}

// gandiProvider implements ddns.Provider for Gandi LiveDNS.
//
// It should be constructed using newGandiProvider.
type gandiProvider struct {
	api        *resty.Client
	httpClient *http.Client
	logger     *slog.Logger
	key        string
	endpoint   *url.URL
	ttl        int // optional rrset_ttl for updated records; 0 keeps the zone default
}

func (g *gandiProvider) configure(endpoint string, ttl int) error {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return &ConfigError{Field: "endpoint", Reason: err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("%q is not an absolute http(s) URL", endpoint)}
	}
	g.endpoint = u
	g.ttl = ttl
	g.build()
	return nil
}

func (g *gandiProvider) SetLogger(logger *slog.Logger) { g.logger = logger }

func (g *gandiProvider) SetHTTPClient(httpclient *http.Client) {
	g.httpClient = httpclient
	g.build()
}

func (g *gandiProvider) build() {
	if g.httpClient != nil {
		g.api = resty.NewWithClient(g.httpClient)
	} else {
		g.api = resty.New()
	}
	g.api.SetBaseURL(g.endpoint.String()).
		SetHeader(headerAPIKey, g.key).
		SetHeader("Accept", "application/json")
}

// Host implements ddns.Provider.
func (g *gandiProvider) Host() string {
	return g.endpoint.Hostname()
}

// ZoneID implements ddns.Provider. It returns the zone_uuid of the domain.
func (g *gandiProvider) ZoneID(ctx context.Context, domain string) (string, error) {
	const op = "zone lookup"
	g.logger.Debug("looking up zone ID", "domain", domain)
	resp, err := g.api.R().
		SetContext(ctx).
		SetPathParam("domain", domain).
		Get("/domains/{domain}")
	if err != nil {
		return "", &ProviderError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return "", responseError(op, resp)
	}

	var reply struct {
		ZoneUUID string `json:"zone_uuid"`
	}
	if err := json.Unmarshal(resp.Body(), &reply); err != nil {
		return "", &ProviderError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("error decoding response: %w", err)}
	}
	if reply.ZoneUUID == "" {
		return "", &ProviderError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New("response has no zone_uuid")}
	}
	return reply.ZoneUUID, nil
}

type rrset struct {
	Values []string `json:"rrset_values"`
	TTL    int      `json:"rrset_ttl,omitempty"`
}

// SetRecord implements ddns.Provider. It replaces the values of the A record name in the zone with addr.
func (g *gandiProvider) SetRecord(ctx context.Context, zoneID, name string, addr netip.Addr) error {
	const op = "record update"
	g.logger.Debug("replacing A record", "zone", zoneID, "name", name, "addr", addr)
	resp, err := g.api.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"zone": zoneID, "name": name}).
		SetHeader("Content-Type", "application/json").
		SetBody(rrset{Values: []string{addr.String()}, TTL: g.ttl}).
		Put("/zones/{zone}/records/{name}/A")
	if err != nil {
		return &ProviderError{Op: op, Err: err}
	}
	g.logger.Info("provider responded", "op", op, "name", name, "status", resp.Status())
	if !resp.IsSuccess() {
		return responseError(op, resp)
	}
	return nil
}

// responseError builds a ProviderError from a non-2xx reply.
// Gandi error bodies look like {"code": 404, "message": "...", "cause": "...", "object": "..."}.
func responseError(op string, resp *resty.Response) error {
	pe := &ProviderError{Op: op, StatusCode: resp.StatusCode()}
	var body struct {
		Message string `json:"message"`
		Cause   string `json:"cause"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		pe.Message = strings.TrimSpace(strings.Join([]string{body.Cause, body.Message}, " "))
	}
	if pe.Message == "" {
		pe.Message = http.StatusText(resp.StatusCode())
	}
	return pe
}

// LookupZone returns the Gandi zone ID of domain using key.
// It makes no changes and is meant for checking a key before it is saved.
// An empty endpoint means DefaultEndpoint.
func LookupZone(ctx context.Context, key, endpoint, domain string) (string, error) {
	g, err := newGandiProvider(key)
	if err != nil {
		return "", err
	}
	if err := g.configure(endpoint, 0); err != nil {
		return "", err
	}
	return g.ZoneID(ctx, domain)
}
