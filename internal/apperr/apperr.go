// SPDX-License-Identifier: MIT

// Package apperr defines the error taxonomy shared across the storage
// client, scanner, classifier, and materializer: every failure surfaced to
// an orchestrator operation carries one of these kinds so callers can decide
// whether to retry, report, or abort.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for the purpose of retry/reporting decisions.
type Kind string

const (
	// KindConfiguration covers missing credentials, missing target path,
	// or an unconnected store. No retry; surfaced immediately.
	KindConfiguration Kind = "configuration"
	// KindAuthentication covers a rejected login. The connection is marked
	// not-connected.
	KindAuthentication Kind = "authentication"
	// KindTransient covers 5xx, connection reset, and timeouts. Retried up
	// to 3x with linear backoff by the storage client.
	KindTransient Kind = "transient"
	// KindRateLimit covers HTTP 429 or a provider-specific rate-limit code.
	// The storage client sleeps 5s and retries up to 3x.
	KindRateLimit Kind = "rate_limit"
	// KindNotFound covers missing paths and already-exists conflicts on
	// move/copy targets.
	KindNotFound Kind = "not_found"
	// KindData covers classifier outcomes that never propagate as Go
	// errors (no number extracted, no rule, number not in resolver table)
	// but are represented here for uniform logging.
	KindData Kind = "data"
	// KindFatal covers programmer errors: a bad enum value, a
	// schema-violating rule. The operation aborts; state is untouched.
	KindFatal Kind = "fatal"
)

// Error wraps an underlying cause with a Kind and the operation that failed.
type Error struct {
	Kind      Kind
	Op        string
	Path      string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %q: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind for op, optionally scoped to path.
func New(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err, Retryable: kind == KindTransient || kind == KindRateLimit}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Sentinel errors usable with errors.Is at call sites that don't need the
// richer *Error context.
var (
	ErrNotConnected     = errors.New("store not connected")
	ErrMissingTarget    = errors.New("missing target path")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrEmptyInventory   = errors.New("inventory is empty")
	ErrNoClassification = errors.New("no classification available")
)
