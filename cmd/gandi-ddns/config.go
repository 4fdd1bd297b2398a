package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Travis-Britz/gandi-ddns"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Key        string        `mapstructure:"key"`
	KeyFile    string        `mapstructure:"key_file"`
	Domain     string        `mapstructure:"domain"`
	Subdomain  []string      `mapstructure:"subdomain"`
	Endpoint   string        `mapstructure:"endpoint"`
	Interval   time.Duration `mapstructure:"interval"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Nameserver string        `mapstructure:"nameserver"`
	IPServices []string      `mapstructure:"ip_services"`
	Interfaces []string      `mapstructure:"interfaces"`
	IP         string        `mapstructure:"ip"`
	TTL        int           `mapstructure:"ttl"`
}

// flag name -> config key
var keyMapping = map[string]string{
	"domain":      "domain",
	"subdomain":   "subdomain",
	"key-file":    "key_file",
	"endpoint":    "endpoint",
	"interval":    "interval",
	"timeout":     "timeout",
	"nameserver":  "nameserver",
	"ip-services": "ip_services",
	"interface":   "interfaces",
	"ip":          "ip",
	"ttl":         "ttl",
}

func addConfigFlags(fs *pflag.FlagSet) {
	fs.StringP("domain", "d", "", "Domain whose zone holds the records")
	fs.StringSliceP("subdomain", "s", nil, "Record names to update, @ for the domain itself")
	fs.StringP("key-file", "k", filepath.Join(os.Getenv("HOME"), ".gandi"), "Path to Gandi API key file")
	fs.String("endpoint", ddns.DefaultEndpoint, "Gandi LiveDNS API base URL")
	fs.DurationP("interval", "i", ddns.DefaultInterval, "Duration to wait between IP checks")
	fs.Duration("timeout", ddns.DefaultTimeout, "Timeout for each network call")
	fs.String("nameserver", "", "Read published addresses from this nameserver instead of the system resolver")
	fs.StringSlice("ip-services", nil, "URLs of plain-text public IP services")
	fs.StringSlice("interface", nil, "Read the public IP from these network interfaces")
	fs.String("ip", "", "IP address to set instead of discovering it")
	fs.Int("ttl", 0, "TTL in seconds for updated records (0 keeps the zone default)")
}

// newViper binds fs and the GANDI_DDNS_ environment to the config keys.
// Precedence is: flags > env > config file > flag defaults.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetConfigName("conf")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/gandi-ddns/")
	v.AddConfigPath("/etc/gandi-ddns/")

	v.SetEnvPrefix("GANDI_DDNS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("key"); err != nil {
		return nil, err
	}

	for flag, key := range keyMapping {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return v, nil
}

// readConfig reads the configuration without resolving the API key.
func readConfig(fs *pflag.FlagSet, path string) (Config, error) {
	v, err := newViper(fs)
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, &ddns.ConfigError{Field: "config", Reason: err.Error()}
		}
		slog.Info("No configuration file found")
	} else {
		slog.Info("Using config file", slog.String("config", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, &ddns.ConfigError{Field: "config", Reason: err.Error()}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Domain = strings.TrimSpace(c.Domain)
	if c.Domain == "" {
		return &ddns.ConfigError{Field: "domain", Reason: "cannot be empty"}
	}
	if len(c.Subdomain) == 0 {
		return &ddns.ConfigError{Field: "subdomain", Reason: "at least one subdomain is required"}
	}
	if c.Interval < ddns.MinInterval {
		return &ddns.ConfigError{Field: "interval", Reason: fmt.Sprintf("must be at least %s", ddns.MinInterval)}
	}
	if c.IP != "" && len(c.Interfaces) > 0 {
		return &ddns.ConfigError{Field: "ip", Reason: "ip and interfaces cannot both be set"}
	}
	return nil
}

// resolveKey fills in Key from KeyFile unless a key was given directly.
func (c *Config) resolveKey() error {
	if c.Key = strings.TrimSpace(c.Key); c.Key != "" {
		return nil
	}
	if c.KeyFile == "" {
		return &ddns.ConfigError{Field: "key", Reason: "set key, GANDI_DDNS_KEY or key_file"}
	}
	if err := verifyPermissions(c.KeyFile); err != nil {
		return &ddns.ConfigError{Field: "key_file", Reason: err.Error()}
	}
	key, err := readKey(c.KeyFile)
	if err != nil {
		return &ddns.ConfigError{Field: "key_file", Reason: err.Error()}
	}
	if key == "" {
		return &ddns.ConfigError{Field: "key_file", Reason: fmt.Sprintf("%q is empty", c.KeyFile)}
	}
	c.Key = key
	return nil
}

func (c Config) options(logger *slog.Logger) ([]ddns.Option, error) {
	opts := []ddns.Option{
		ddns.UsingGandi(c.Key),
		ddns.WithSubdomains(c.Subdomain...),
		ddns.WithEndpoint(c.Endpoint),
		ddns.WithTimeout(c.Timeout),
		ddns.WithTTL(c.TTL),
		ddns.WithLogger(logger),
	}
	switch {
	case c.IP != "":
		r, err := ddns.FromString(c.IP)
		if err != nil {
			return nil, &ddns.ConfigError{Field: "ip", Reason: err.Error()}
		}
		opts = append(opts, ddns.UsingResolver(r))
	case len(c.Interfaces) > 0:
		opts = append(opts, ddns.UsingResolver(ddns.InterfaceResolver(c.Interfaces...)))
	case len(c.IPServices) > 0:
		opts = append(opts, ddns.UsingWebResolver(c.IPServices...))
	}
	if c.Nameserver != "" {
		opts = append(opts, ddns.UsingNameserver(c.Nameserver))
	}
	return opts, nil
}
