package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tags a failure so retry and fallback logic can act on the kind
// instead of matching on message text.
type ErrorKind string

const (
	ErrKindInput       ErrorKind = "input"
	ErrKindNetwork     ErrorKind = "network"
	ErrKindTimeout     ErrorKind = "timeout"
	ErrKindBadResponse ErrorKind = "bad_response"
	ErrKindExport      ErrorKind = "export"
)

// PipelineError is a kind-tagged error returned by collaborator-facing calls.
type PipelineError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a kind-tagged pipeline error.
func NewError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

func InputError(message string, err error) *PipelineError {
	return NewError(ErrKindInput, message, err)
}

func NetworkError(message string, err error) *PipelineError {
	return NewError(ErrKindNetwork, message, err)
}

func TimeoutError(message string, err error) *PipelineError {
	return NewError(ErrKindTimeout, message, err)
}

func BadResponseError(message string, err error) *PipelineError {
	return NewError(ErrKindBadResponse, message, err)
}

func ExportError(message string, err error) *PipelineError {
	return NewError(ErrKindExport, message, err)
}

// KindOf extracts the kind from an error chain, or empty when the chain
// carries no PipelineError.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Retryable reports whether a failure is worth another attempt. Bad input
// and export failures never are; transport failures and anything untagged
// might be transient.
func Retryable(err error) bool {
	switch KindOf(err) {
	case ErrKindInput, ErrKindExport:
		return false
	}
	return true
}
