package connectors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for connector errors.
type ErrorCategory string

const (
	// ErrorUnsupportedCapability: the operation is not offered by this connector.
	ErrorUnsupportedCapability ErrorCategory = "unsupported_capability"

	// ErrorTransport: network failure or unexpected HTTP status.
	ErrorTransport ErrorCategory = "transport"

	// ErrorTimeout: the per-call deadline elapsed. A subclass of transport.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorRateLimited: the broker throttled us. A subclass of transport.
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorBadData: the broker answered but the payload could not be interpreted.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorMissingField: the query lacks a field this connector requires.
	ErrorMissingField ErrorCategory = "missing_field"

	// ErrorInternal: anything unclassified.
	ErrorInternal ErrorCategory = "internal"
)

// ConnectorError wraps a connector failure with its category.
type ConnectorError struct {
	Category    ErrorCategory
	ConnectorID string
	Message     string
	Underlying  error
}

func (e *ConnectorError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("connector %s [%s]: %s: %v", e.ConnectorID, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("connector %s [%s]: %s", e.ConnectorID, e.Category, e.Message)
}

func (e *ConnectorError) Unwrap() error {
	return e.Underlying
}

// NewError creates a categorized connector error.
func NewError(category ErrorCategory, connectorID, message string, underlying error) *ConnectorError {
	return &ConnectorError{
		Category:    category,
		ConnectorID: connectorID,
		Message:     message,
		Underlying:  underlying,
	}
}

// Unsupported is shorthand for a self-guard failure.
func Unsupported(connectorID, operation string) *ConnectorError {
	return NewError(ErrorUnsupportedCapability, connectorID,
		fmt.Sprintf("%s is not supported", operation), nil)
}

// MissingField reports a query field the connector cannot work without.
func MissingField(connectorID, message string) *ConnectorError {
	return NewError(ErrorMissingField, connectorID, message, nil)
}

// GetCategory extracts the category from err. Context deadline errors that
// escaped a connector unwrapped are classified as timeouts.
func GetCategory(err error) ErrorCategory {
	var ce *ConnectorError
	if errors.As(err, &ce) {
		return ce.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorInternal
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category ErrorCategory) bool {
	return GetCategory(err) == category
}

// IsTransport reports whether err is a transport-level failure, including
// timeouts and throttling.
func IsTransport(err error) bool {
	switch GetCategory(err) {
	case ErrorTransport, ErrorTimeout, ErrorRateLimited:
		return true
	}
	return false
}

var (
	ErrConnectorNotFound  = errors.New("connector not found")
	ErrDuplicateConnector = errors.New("connector already registered")
)
