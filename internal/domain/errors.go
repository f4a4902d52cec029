package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when comment input breaks a field rule.
	// Handlers map it to 422.
	ErrValidation = errors.New("validation error")

	ErrEmptyInput        = errors.New("empty input")
	ErrTransport         = errors.New("completion transport failed")
	ErrMalformedResponse = errors.New("malformed completion response")
)

// ExtractionError is the single error type returned by the AI extractor.
// Kind is one of ErrEmptyInput, ErrTransport, ErrMalformedResponse.
type ExtractionError struct {
	Kind error
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *ExtractionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
