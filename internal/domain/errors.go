package domain

import (
	"errors"
	"fmt"
)

// InputError marks a structurally invalid request or record. It is the only
// error class that fails a whole call; anything recoverable is handled by a
// documented fallback and surfaced as a note instead.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewInputError builds an InputError for a named field.
func NewInputError(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}

// IsInputError reports whether err is (or wraps) an InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// SKUFailure records why one SKU was dropped from a batch evaluation. The
// batch itself still succeeds; failures ride along on the result.
type SKUFailure struct {
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}
