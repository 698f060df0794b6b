package generate

import (
	"errors"
	"fmt"
)

// Failure reasons surfaced to the worker. Each maps to a distinct user-facing
// message; overload is kept separate from generic unavailability because it
// carries actionable guidance.
const (
	ReasonUnavailable     = "unavailable"
	ReasonOverloaded      = "overloaded"
	ReasonInvalidResponse = "invalid_response"
	ReasonNoCandidates    = "no_candidates"
	ReasonUnknownModel    = "unknown_model"
)

// Error is a stable, categorized generation failure.
type Error struct {
	Reason string
	Detail string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// NewError creates a categorized generation error.
func NewError(reason string, detail string) error {
	return &Error{Reason: reason, Detail: detail}
}

// ReasonFromError extracts the failure reason, defaulting to unavailable for
// uncategorized errors.
func ReasonFromError(err error) string {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Reason
	}

	return ReasonUnavailable
}
