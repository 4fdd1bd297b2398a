package ddns

import (
	"errors"
	"fmt"
)

// ErrUnreachable is returned for a cycle that was skipped because the provider's API host did not resolve.
var ErrUnreachable = errors.New("provider unreachable")

// ConfigError describes an invalid client configuration.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// ResolutionError is returned when the published address of a host could not be read.
type ResolutionError struct {
	Host string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %s: %s", e.Host, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// DiscoveryError is returned when the public IP of this host could not be determined.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("public IP discovery: %s", e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ProviderError is returned when a call to the DNS provider's API fails.
// StatusCode is zero when no HTTP response was received.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }
