package main

import (
	"context"
	"errors"

	"github.com/lib/pq"

	"github.com/custodia-labs/cfr-ingest/internal/config"
	"github.com/custodia-labs/cfr-ingest/internal/core/domain"
)

// Exit codes.
const (
	ExitSuccess     = 0
	ExitConfig      = 1
	ExitStorage     = 2
	ExitRemote      = 3
	ExitLockHeld    = 4
	ExitInternal    = 10
	ExitInterrupted = 130
)

// exitError attaches an exit code to an error raised while wiring.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	var fe *domain.FetchError
	var pqErr *pq.Error
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, config.ErrInvalid), errors.Is(err, domain.ErrInvalidInput):
		return ExitConfig
	case errors.Is(err, domain.ErrLockHeld):
		return ExitLockHeld
	case errors.As(err, &fe), errors.Is(err, domain.ErrMalformedIndex):
		return ExitRemote
	case errors.As(err, &pqErr):
		return ExitStorage
	default:
		return ExitInternal
	}
}
