// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int // HTTP status, when one was received
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinel errors by type so errors.Is(err, ErrTimeout) works
// for any timeout, not just the sentinel instance.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t == sentinelFor(t.Type) && t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeCanceled
	ErrTypeStatus
	ErrTypeBusiness
	ErrTypeInvalidResponse
	ErrTypeNotFound
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCanceled:
		return "canceled"
	case ErrTypeStatus:
		return "status"
	case ErrTypeBusiness:
		return "business"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrUnreachable = &ClientError{Type: ErrTypeConnection, Message: "backend is not reachable"}
	ErrTimeout     = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCanceled    = &ClientError{Type: ErrTypeCanceled, Message: "request canceled"}
	ErrNotFound    = &ClientError{Type: ErrTypeNotFound, Message: "not found"}
)

func sentinelFor(t ErrorType) *ClientError {
	switch t {
	case ErrTypeConnection:
		return ErrUnreachable
	case ErrTypeTimeout:
		return ErrTimeout
	case ErrTypeCanceled:
		return ErrCanceled
	case ErrTypeNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// IsBusiness reports whether err is a backend-reported failure, as opposed
// to a transport problem.
func IsBusiness(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeBusiness
}

// transportError classifies an error returned by http.Client.Do.
func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: err}
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	default:
		return &ClientError{Type: ErrTypeConnection, Message: "backend is not reachable", Cause: err}
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

func statusError(status int, detail string) error {
	typ := ErrTypeStatus
	if status == http.StatusNotFound {
		typ = ErrTypeNotFound
	}
	msg := fmt.Sprintf("unexpected status %d %s", status, http.StatusText(status))
	if detail != "" {
		msg += ": " + detail
	}
	return &ClientError{Type: typ, Message: msg, StatusCode: status}
}
