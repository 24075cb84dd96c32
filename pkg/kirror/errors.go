// Package kirror defines the error taxonomy of the request/response
// translation layer (pkg/kiro/...); the wire protocol layer (pkg/wire)
// uses its own ParseError type instead. It mirrors the sentinel-plus-struct pattern used by the
// AI SDK's pkg/provider/errors package: a handful of comparable sentinel
// errors for category checks, and richer struct types carrying context,
// composable via errors.As/errors.Is.
package kirror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the two client-visible input failures from request
// conversion (C6). Neither is retryable.
var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrEmptyMessages    = errors.New("empty messages")
)

// ConversionError wraps one of the sentinel conversion failures with the
// offending model name, if relevant.
type ConversionError struct {
	Model string
	Cause error
}

func (e *ConversionError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("%s: %q", e.Cause, e.Model)
	}
	return e.Cause.Error()
}

func (e *ConversionError) Unwrap() error { return e.Cause }

// NewUnsupportedModel builds a ConversionError for an unrecognized model name.
func NewUnsupportedModel(model string) *ConversionError {
	return &ConversionError{Model: model, Cause: ErrUnsupportedModel}
}

// NewEmptyMessages builds a ConversionError for an empty message list.
func NewEmptyMessages() *ConversionError {
	return &ConversionError{Cause: ErrEmptyMessages}
}

// IsConversionError reports whether err is (or wraps) a ConversionError.
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

// UpstreamError represents a failure calling or reading from the Kiro
// upstream service (network error or non-2xx response).
type UpstreamError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream error (%d): %s (caused by: %v)", e.StatusCode, e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream error (%d): %s", e.StatusCode, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }
