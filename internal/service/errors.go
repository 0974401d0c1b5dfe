package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrAuthRequired      = errors.New("authentication required")
	ErrStaffOnly         = errors.New("staff only")
	ErrOrderAccessDenied = errors.New("access denied")
)

// ValidationError reports malformed input. Nothing is mutated when it is
// returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// GatewayError wraps a payment gateway failure or timeout. The order it
// concerns (if any) stays pending and the call is safe to retry.
type GatewayError struct {
	OrderID uuid.UUID
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return "payment gateway: " + e.Message
}

func (e *GatewayError) Unwrap() error { return e.Err }
