package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrLockHeld indicates another ingestion run holds the run lock
	ErrLockHeld = errors.New("ingestion already in progress")

	// ErrMalformedIndex indicates an agency or title index was not a list
	ErrMalformedIndex = errors.New("malformed index")
)

// FetchErrorKind classifies remote fetch failures.
type FetchErrorKind string

const (
	FetchNotFound    FetchErrorKind = "not_found"
	FetchRateLimited FetchErrorKind = "rate_limited"
	FetchTransient   FetchErrorKind = "transient"
	FetchMalformed   FetchErrorKind = "malformed"
	FetchExhausted   FetchErrorKind = "exhausted"
	FetchRequest     FetchErrorKind = "request"
)

// FetchError is returned by the remote content adapter.
type FetchError struct {
	Kind   FetchErrorKind
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotFound) match 404 fetch failures.
func (e *FetchError) Is(target error) bool {
	return target == ErrNotFound && e.Kind == FetchNotFound
}

// Retryable reports whether the fetch loop may try again.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case FetchRateLimited, FetchTransient:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a retryable fetch error.
func IsRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Retryable()
	}
	return false
}

// FetchErrorKindOf returns the kind of a fetch error, or "".
func FetchErrorKindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
