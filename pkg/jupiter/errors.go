package jupiter

import (
	"errors"
	"fmt"
)

// ErrNoRoute means the aggregator found no liquidity path between the
// two mints. This is a normal outcome for illiquid pairs, not a fault.
var ErrNoRoute = errors.New("no viable route for pair")

// ParamError reports a request that failed local validation before any
// network call was made.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Field, e.Reason)
}

// UpstreamError reports a failed call to the aggregator. Retriable is
// true for transport-level failures (network error, timeout, non-2xx
// without an actionable body) and false when the aggregator understood
// the request and rejected it.
type UpstreamError struct {
	Status    int    // HTTP status, 0 for transport-level failures
	Message   string
	Details   string
	Retriable bool
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("aggregator unavailable: %s", e.Message)
	}
	if e.Details != "" {
		return fmt.Sprintf("aggregator error (%d): %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("aggregator error (%d): %s", e.Status, e.Message)
}

// IsRetriable reports whether err is a transient upstream failure that
// is safe to retry with unchanged parameters.
func IsRetriable(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Retriable
}
