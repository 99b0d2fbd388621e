package providers

import (
	"errors"
	"fmt"
)

// TransientError marks a generation call failure that is safe to retry:
// network errors, rate limiting, and 5xx-class upstream responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient generation error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a generation call failure that must not be retried:
// malformed requests, authentication failures, exhausted quota.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal generation error: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError. Returns nil for nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Fatal wraps err as a FatalError. Returns nil for nil err.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err is (or wraps) a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// ClassifyHTTPStatus maps an upstream HTTP status code to the retry taxonomy.
// 429 and 5xx are transient; everything else non-2xx is fatal.
func ClassifyHTTPStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	if status == 429 || status >= 500 {
		return Transient(err)
	}
	return Fatal(err)
}
