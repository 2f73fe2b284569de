package routing

import (
	"errors"
	"fmt"
)

// ErrNoViableOption is returned when no store resolves any requested item.
// It is the caller-visible "not found" condition and must never be folded
// into a generic server error.
var ErrNoViableOption = errors.New("no store resolves any of the requested items")

// ValidationError rejects a malformed request before any upstream call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// UpstreamError wraps a data-provider or routing-provider failure. The
// service degrades to partial data where possible and only surfaces this
// when zero stores or zero offers were obtainable.
type UpstreamError struct {
	Op  string // "stores", "offers" or "route"
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
