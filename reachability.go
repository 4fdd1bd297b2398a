package ddns

import (
	"context"
	"fmt"
	"net"
)

// Reachable resolves host through the system resolver and returns an error wrapping ErrUnreachable if that fails.
// No connection is made to host.
func Reachable(ctx context.Context, host string) error {
	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, host, err)
	}
	return nil
}
