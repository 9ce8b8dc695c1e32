// Package ragErrors holds the error taxonomy shared by every layer of the pipeline.
// Adapters wrap their failures with a Kind so the boundary layers (HTTP, MCP, CLI)
// can decide on a status without inspecting provider specific errors.
package ragErrors

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidConfiguration Kind = "INVALID_CONFIGURATION"
	KindInvalidDocument      Kind = "INVALID_DOCUMENT"
	KindInvalidQuery         Kind = "INVALID_QUERY"
	KindStoreUnavailable     Kind = "STORE_UNAVAILABLE"
	KindAdapterUnavailable   Kind = "ADAPTER_UNAVAILABLE"
	KindTimeout              Kind = "TIMEOUT"
	KindIngestionFailed      Kind = "INGESTION_FAILED"
	KindNoResultsFound       Kind = "NO_RESULTS_FOUND"
	KindEmptyAggregateSet    Kind = "EMPTY_AGGREGATE_SET"
	KindInternal             Kind = "INTERNAL"
)

// Sentinels for errors.Is checks. Matching is done on Kind only.
var (
	ErrInvalidConfiguration = &Error{Kind: KindInvalidConfiguration}
	ErrInvalidDocument      = &Error{Kind: KindInvalidDocument}
	ErrInvalidQuery         = &Error{Kind: KindInvalidQuery}
	ErrStoreUnavailable     = &Error{Kind: KindStoreUnavailable}
	ErrAdapterUnavailable   = &Error{Kind: KindAdapterUnavailable}
	ErrTimeout              = &Error{Kind: KindTimeout}
	ErrIngestionFailed      = &Error{Kind: KindIngestionFailed}
	ErrNoResultsFound       = &Error{Kind: KindNoResultsFound}
	ErrEmptyAggregateSet    = &Error{Kind: KindEmptyAggregateSet}
)

type Error struct {
	Kind       Kind
	Op         string
	DocumentId string
	Err        error
}

func New(kind Kind, op string, documentId string, err error) *Error {
	return &Error{Kind: kind, Op: op, DocumentId: documentId, Err: err}
}

// Newf builds an error whose cause is a formatted message.
func Newf(kind Kind, op string, documentId string, format string, args ...any) *Error {
	return New(kind, op, documentId, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.DocumentId != "" {
		msg += " (document " + e.DocumentId + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// FromExternal wraps an adapter failure. Deadline expiry is always reported as
// KindTimeout, everything else gets the supplied kind. Errors that already carry a
// Kind are passed through with the new op so the innermost classification wins.
func FromExternal(kind Kind, op string, documentId string, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New(KindTimeout, op, documentId, err)
	}
	return New(kind, op, documentId, err)
}

// KindOf returns the kind carried by err or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

// Retryable reports whether the caller may reasonably try the same request again.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindStoreUnavailable, KindAdapterUnavailable, KindTimeout, KindIngestionFailed:
		return true
	}
	return false
}
