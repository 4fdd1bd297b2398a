package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Travis-Britz/gandi-ddns"
	"github.com/spf13/pflag"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addConfigFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("unable to parse flags: %s", err)
	}
	return fs
}

func writeFile(t *testing.T, name, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatalf("unable to write %s: %s", path, err)
	}
	// WriteFile is subject to the umask
	if err := os.Chmod(path, perm); err != nil {
		t.Fatalf("unable to chmod %s: %s", path, err)
	}
	return path
}

func expectConfigError(t *testing.T, err error, field string) {
	t.Helper()
	var cerr *ddns.ConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("Expected a ConfigError; got %v", err)
	}
	if cerr.Field != field {
		t.Fatalf("Expected field %q; got %q (%s)", field, cerr.Field, cerr)
	}
}

func TestReadConfigSingleSubdomain(t *testing.T) {
	path := writeFile(t, "conf.json", `{"key": "abc", "domain": "example.com", "subdomain": "home"}`, 0600)
	cfg, err := readConfig(testFlags(t), path)
	if err != nil {
		t.Fatalf("readConfig failed: %s", err)
	}
	if len(cfg.Subdomain) != 1 || cfg.Subdomain[0] != "home" {
		t.Fatalf("Expected subdomains [home]; got %v", cfg.Subdomain)
	}
	if cfg.Key != "abc" || cfg.Domain != "example.com" {
		t.Fatalf("Expected key and domain from the file; got %+v", cfg)
	}
	if cfg.Interval != ddns.DefaultInterval || cfg.Timeout != ddns.DefaultTimeout || cfg.Endpoint != ddns.DefaultEndpoint {
		t.Fatalf("Expected defaults for interval, timeout and endpoint; got %+v", cfg)
	}
}

func TestReadConfigSubdomainList(t *testing.T) {
	path := writeFile(t, "conf.json", `{
		"key": "abc",
		"domain": "example.com",
		"subdomain": ["home", "office"],
		"interval": "10m",
		"ttl": 300,
		"ip_services": ["https://ipv4.icanhazip.com/"]
	}`, 0600)
	cfg, err := readConfig(testFlags(t), path)
	if err != nil {
		t.Fatalf("readConfig failed: %s", err)
	}
	if len(cfg.Subdomain) != 2 || cfg.Subdomain[0] != "home" || cfg.Subdomain[1] != "office" {
		t.Fatalf("Expected subdomains [home office]; got %v", cfg.Subdomain)
	}
	if cfg.Interval != 10*time.Minute {
		t.Fatalf("Expected interval 10m; got %s", cfg.Interval)
	}
	if cfg.TTL != 300 || len(cfg.IPServices) != 1 {
		t.Fatalf("Expected ttl and ip_services from the file; got %+v", cfg)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := writeFile(t, "conf.json", `{"key": "abc", "domain": "example.com", "subdomain": "home"}`, 0600)
	cfg, err := readConfig(testFlags(t, "--domain", "example.org", "-s", "vpn,www"), path)
	if err != nil {
		t.Fatalf("readConfig failed: %s", err)
	}
	if cfg.Domain != "example.org" {
		t.Fatalf("Expected the flag to win; got %q", cfg.Domain)
	}
	if len(cfg.Subdomain) != 2 || cfg.Subdomain[0] != "vpn" {
		t.Fatalf("Expected subdomains [vpn www]; got %v", cfg.Subdomain)
	}
}

func TestEnvKey(t *testing.T) {
	t.Setenv("GANDI_DDNS_KEY", "from-env")
	path := writeFile(t, "conf.json", `{"domain": "example.com", "subdomain": "home"}`, 0600)
	cfg, err := readConfig(testFlags(t), path)
	if err != nil {
		t.Fatalf("readConfig failed: %s", err)
	}
	if cfg.Key != "from-env" {
		t.Fatalf("Expected the key from the environment; got %q", cfg.Key)
	}
}

func TestReadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"missing domain", `{"key": "abc", "subdomain": "home"}`, "domain"},
		{"missing subdomain", `{"key": "abc", "domain": "example.com"}`, "subdomain"},
		{"short interval", `{"key": "abc", "domain": "example.com", "subdomain": "home", "interval": "5s"}`, "interval"},
		{"ip and interfaces", `{"key": "abc", "domain": "example.com", "subdomain": "home", "ip": "1.2.3.4", "interfaces": ["eth0"]}`, "ip"},
		{"malformed", `{"key": "abc",`, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "conf.json", tt.content, 0600)
			_, err := readConfig(testFlags(t), path)
			expectConfigError(t, err, tt.field)
		})
	}
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := readConfig(testFlags(t), filepath.Join(t.TempDir(), "missing.json"))
	expectConfigError(t, err, "config")
}

func TestResolveKeyFromFile(t *testing.T) {
	keyFile := writeFile(t, "key", "  s3cr3t  \nignored\n", 0600)
	cfg := Config{KeyFile: keyFile}
	if err := cfg.resolveKey(); err != nil {
		t.Fatalf("resolveKey failed: %s", err)
	}
	if cfg.Key != "s3cr3t" {
		t.Fatalf("Expected key s3cr3t; got %q", cfg.Key)
	}
}

func TestResolveKeyErrors(t *testing.T) {
	cfg := Config{}
	expectConfigError(t, cfg.resolveKey(), "key")

	cfg = Config{KeyFile: writeFile(t, "key", "s3cr3t\n", 0644)}
	expectConfigError(t, cfg.resolveKey(), "key_file")

	cfg = Config{KeyFile: filepath.Join(t.TempDir(), "missing")}
	expectConfigError(t, cfg.resolveKey(), "key_file")
}

func TestDirectKeyWins(t *testing.T) {
	cfg := Config{Key: " abc ", KeyFile: filepath.Join(t.TempDir(), "missing")}
	if err := cfg.resolveKey(); err != nil {
		t.Fatalf("resolveKey failed: %s", err)
	}
	if cfg.Key != "abc" {
		t.Fatalf("Expected key abc; got %q", cfg.Key)
	}
}

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := Config{Key: "abc", Domain: "example.com", Subdomain: []string{"home"}, IP: "not an ip"}
	_, err := cfg.options(logger)
	expectConfigError(t, err, "ip")

	cfg.IP = "203.0.113.1"
	cfg.Nameserver = "ns1.gandi.net"
	opts, err := cfg.options(logger)
	if err != nil {
		t.Fatalf("options failed: %s", err)
	}
	if _, err := ddns.New(cfg.Domain, opts...); err != nil {
		t.Fatalf("Expected a valid client; got %s", err)
	}
}
