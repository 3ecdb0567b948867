package errors

import (
	"fmt"
)

// PipelineError is the unified error type for pipeline components.
type PipelineError struct {
	// Kind classifies which component class the error originated from.
	Kind Kind `json:"kind"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *PipelineError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *PipelineError) WithCause(cause error) *PipelineError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *PipelineError) WithDetails(details map[string]any) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *PipelineError) WithDetail(key string, value any) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new PipelineError with the given kind and message.
func New(kind Kind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message}
}

// Newf creates a new PipelineError with a formatted message.
func Newf(kind Kind, format string, args ...any) *PipelineError {
	return &PipelineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// --- Per-Kind Constructors ---

// Source creates a new PipelineError for a source failure.
func Source(message string) *PipelineError {
	return &PipelineError{Kind: KindSource, Message: message}
}

// Sink creates a new PipelineError for a sink failure.
func Sink(message string) *PipelineError {
	return &PipelineError{Kind: KindSink, Message: message}
}

// Transform creates a new PipelineError for a transform failure.
func Transform(message string) *PipelineError {
	return &PipelineError{Kind: KindTransform, Message: message}
}

// Schema creates a new PipelineError for a schema violation.
func Schema(message string) *PipelineError {
	return &PipelineError{Kind: KindSchema, Message: message}
}

// Config creates a new PipelineError for invalid configuration.
func Config(message string) *PipelineError {
	return &PipelineError{Kind: KindConfig, Message: message}
}

// IO creates a new PipelineError for a byte-level I/O failure.
func IO(message string) *PipelineError {
	return &PipelineError{Kind: KindIO, Message: message}
}

// Serialization creates a new PipelineError for an encode/decode failure.
func Serialization(message string) *PipelineError {
	return &PipelineError{Kind: KindSerialization, Message: message}
}

// --- Schema Violation Constructors ---

// MissingField creates a schema error for a required field absent from a record.
func MissingField(field string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchema,
		Message: fmt.Sprintf("missing required field: %s", field),
		Details: map[string]any{"field": field},
	}
}

// IncompatibleType creates a schema error for a field value whose type does
// not satisfy the declared field type.
func IncompatibleType(field string) *PipelineError {
	return &PipelineError{
		Kind:    KindSchema,
		Message: fmt.Sprintf("incompatible type for field: %s", field),
		Details: map[string]any{"field": field},
	}
}
