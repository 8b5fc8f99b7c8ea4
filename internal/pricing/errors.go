package pricing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a product does not exist or is not owned
// by the caller. Ownership mismatches map to the same error so callers
// cannot probe for other users' product ids.
var ErrNotFound = errors.New("product not found")

var (
	// ErrPredictionFailed is returned when the predictor answers with a
	// non-success status.
	ErrPredictionFailed = errors.New("prediction failed")

	// ErrInvalidPrediction is returned when the predictor answers success
	// but the predicted price is not positive.
	ErrInvalidPrediction = errors.New("invalid predicted price")
)

// ValidationError reports a product field that fails pre-computation checks.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DomainNotRecognizedError reports a product category that has no
// case-insensitive match in the predictor's domain list.
type DomainNotRecognizedError struct {
	Attempted string
	Available []string
}

func (e *DomainNotRecognizedError) Error() string {
	return fmt.Sprintf("domain %q not recognized, available domains: %s",
		e.Attempted, strings.Join(e.Available, ", "))
}

// UpstreamError wraps a transport or HTTP-level failure talking to the
// predictor service.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("predictor %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
