// Package svcerr classifies failures of AI service calls.
//
// Every service adapter maps its transport and provider errors into *Error so
// that retry and fallback decisions are made on Kind alone.
package svcerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindUnavailable      Kind = "service-unavailable"
	KindNetwork          Kind = "network"
	KindRateLimit        Kind = "rate-limit"
	KindInvalidInput     Kind = "invalid-input"
	KindProcessingFailed Kind = "processing-failed"
	KindTimeout          Kind = "timeout"
)

// Retryable reports the default retry classification for k.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindRateLimit, KindTimeout:
		return true
	default:
		return false
	}
}

// Error is a classified service failure.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Service   string // service that produced the error, if known
	Attempts  int    // set by retry; 0 when the call was never retried
	Cause     error
}

// New returns an *Error of kind k with the default retry classification.
func New(k Kind, msg string) *Error {
	return &Error{Kind: k, Message: msg, Retryable: k.Retryable()}
}

// Wrap is New with a cause attached.
func Wrap(k Kind, msg string, cause error) *Error {
	e := New(k, msg)
	e.Cause = cause
	return e
}

func Unavailable(service, msg string) *Error {
	e := New(KindUnavailable, msg)
	e.Service = service
	return e
}

func InvalidInput(msg string) *Error { return New(KindInvalidInput, msg) }

func (e *Error) Error() string {
	var b strings.Builder
	if e.Service != "" {
		b.WriteString(e.Service)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil && e.Cause.Error() != e.Message {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " (after %d attempts)", e.Attempts)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error by Kind so errors.Is(err, svcerr.New(KindRateLimit, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Service == "" || t.Service == e.Service)
}

// CompoundError aggregates one error per attempted service.
type CompoundError struct {
	Errors []error
}

func (e *CompoundError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "all services failed"
	case 1:
		return e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return "all services failed: " + strings.Join(parts, "; ")
}

func (e *CompoundError) Unwrap() []error { return e.Errors }

// Retryable is true only when every constituent is retryable.
func (e *CompoundError) Retryable() bool {
	if len(e.Errors) == 0 {
		return false
	}
	for _, err := range e.Errors {
		if !IsRetryable(err) {
			return false
		}
	}
	return true
}

// IsRetryable classifies err. Unknown errors are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ce *CompoundError
	if errors.As(err, &ce) {
		return ce.Retryable()
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// KindOf returns the Kind of the first *Error in err's chain.
// Plain errors report KindProcessingFailed.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindProcessingFailed
}

// As coerces err into an *Error, classifying unknown errors as processing-failed.
func As(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, "deadline exceeded", err)
	}
	return Wrap(KindProcessingFailed, err.Error(), err)
}

// ForStatus maps an HTTP status from an AI provider to a Kind.
func ForStatus(code int) Kind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 500:
		return KindNetwork
	case code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusNotFound:
		return KindUnavailable
	case code == http.StatusBadRequest || code == http.StatusRequestEntityTooLarge || code == http.StatusUnprocessableEntity:
		return KindInvalidInput
	default:
		return KindProcessingFailed
	}
}
