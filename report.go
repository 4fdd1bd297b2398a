package ddns

import (
	"errors"
	"log/slog"
	"net/netip"
)

// Outcome is the result of one cycle for one subdomain.
type Outcome int

const (
	// NoChange means the published address already matched the public IP.
	NoChange Outcome = iota
	// Updated means the record was rewritten with the public IP.
	Updated
	// Failed means either address could not be read or the update was rejected.
	// No write is attempted when a lookup fails.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case NoChange:
		return "no-change"
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	}
	return "unknown"
}

type Result struct {
	Subdomain string
	Host      string
	Outcome   Outcome
	Published []netip.Addr
	Public    netip.Addr // zero if discovery was not reached or failed
	Err       error
}

// Report describes one cycle. Results is empty when the cycle was skipped
// before any subdomain was checked.
type Report struct {
	Domain  string
	Zone    string
	Results []Result
}

// Err joins the errors of every failed result.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Count returns the number of results with the given outcome.
func (r Report) Count(o Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == o {
			n++
		}
	}
	return n
}

func (r Report) Log(logger *slog.Logger) {
	for _, res := range r.Results {
		attrs := []any{"host", res.Host, "outcome", res.Outcome.String()}
		switch res.Outcome {
		case Updated:
			logger.Info("record updated", append(attrs, "addr", res.Public)...)
		case Failed:
			logger.Error("record check failed", append(attrs, "error", res.Err)...)
		default:
			logger.Debug("record unchanged", append(attrs, "addr", res.Public)...)
		}
	}
}
