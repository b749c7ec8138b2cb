package domain

import (
	"fmt"
	"time"
)

// MCPError represents a standardized error response
type MCPError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *MCPError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for different failure scenarios
const (
	ErrInvalidInput   = "INVALID_INPUT"
	ErrValidation     = "VALIDATION_ERROR"
	ErrStorage        = "STORAGE_ERROR"
	ErrNotFoundCode   = "NOT_FOUND"
	ErrRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrInternalServer = "INTERNAL_SERVER_ERROR"
)

// NewMCPError creates a new MCPError with timestamp
func NewMCPError(code, message, details, requestID string) *MCPError {
	return &MCPError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationKind tags why a field failed validation.
type ValidationKind string

const (
	KindEmptyValue       ValidationKind = "EMPTY_VALUE"
	KindNotANumber       ValidationKind = "NOT_A_NUMBER"
	KindOutOfRange       ValidationKind = "OUT_OF_RANGE"
	KindEstimationFailed ValidationKind = "ESTIMATION_FAILED"
	KindInvalidOption    ValidationKind = "INVALID_OPTION"
)

// ValidationError represents a per-field input validation failure
type ValidationError struct {
	Field   Field          `json:"field"`
	Kind    ValidationKind `json:"kind"`
	Message string         `json:"message"`
	Value   string         `json:"value,omitempty"`
	Min     *float64       `json:"min,omitempty"`
	Max     *float64       `json:"max,omitempty"`
	Unit    string         `json:"unit,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError
func NewValidationError(field Field, kind ValidationKind, message string, value string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Kind:    kind,
		Message: message,
		Value:   value,
	}
}

// NewOutOfRangeError creates an OUT_OF_RANGE error carrying the accepted range.
func NewOutOfRangeError(field Field, r ValidationRange, value string) *ValidationError {
	msg := fmt.Sprintf("valid range: %g - %g", r.Min, r.Max)
	if r.Unit != "" {
		msg += " " + r.Unit
	}
	return &ValidationError{
		Field:   field,
		Kind:    KindOutOfRange,
		Message: msg,
		Value:   value,
		Min:     Float64(r.Min),
		Max:     Float64(r.Max),
		Unit:    r.Unit,
	}
}
