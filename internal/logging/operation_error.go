package logging

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the boundary layer can pick a response.
type Kind int

const (
	// KindUnknown is reported for errors that are not an OperationError.
	KindUnknown Kind = iota
	// KindInput marks a missing or malformed request field.
	KindInput
	// KindDecode marks bytes that are not a decodable image.
	KindDecode
	// KindValidation marks a transform configuration or image that is rejected
	// before any work starts.
	KindValidation
	// KindProcessing marks an unexpected failure inside a segment task, a
	// resize step, or persistence.
	KindProcessing
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindDecode:
		return "decode"
	case KindValidation:
		return "validation"
	case KindProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// OperationError annotates an error with its kind and operation metadata.
type OperationError struct {
	Kind      Kind
	Operation string
	RequestID string
	Err       error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s (request_id=%s): %v", e.Operation, e.RequestID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError wraps an error with structured context about where it occurred.
func NewOperationError(kind Kind, operation, requestID string, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Kind: kind, Operation: operation, RequestID: requestID, Err: err}
}

// Validationf builds a KindValidation error with a formatted message.
func Validationf(operation, format string, args ...any) error {
	return &OperationError{Kind: KindValidation, Operation: operation, Err: fmt.Errorf(format, args...)}
}

// Processingf builds a KindProcessing error with a formatted message.
func Processingf(operation, format string, args ...any) error {
	return &OperationError{Kind: KindProcessing, Operation: operation, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of the outermost OperationError in err's chain.
func KindOf(err error) Kind {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindUnknown
}
