// Package ingestion holds the sentinel errors shared by the food-ingestion
// pipeline packages. Callers match them with errors.Is.
package ingestion

import "errors"

var (
	ErrAccessDenied         = errors.New("access denied")
	ErrUpstreamUnavailable  = errors.New("upstream completion unavailable")
	ErrUpstreamFormat       = errors.New("upstream reply malformed")
	ErrDuplicateWindow      = errors.New("another entry exists within 5 minutes")
	ErrFutureTimestamp      = errors.New("timestamp too far in the future")
	ErrNotFound             = errors.New("not found")
	ErrInactiveCatalogEntry = errors.New("catalog entry is not active")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrInvalidInput         = errors.New("invalid input")
)

// Reason returns a short stable label for err, used in logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrDuplicateWindow):
		return "duplicate_window"
	case errors.Is(err, ErrFutureTimestamp):
		return "future_timestamp"
	case errors.Is(err, ErrInactiveCatalogEntry):
		return "inactive_catalog_entry"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrUpstreamFormat):
		return "upstream_format"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
