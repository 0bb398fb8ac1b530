package svcerr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindRetryable(t *testing.T) {
	t.Parallel()

	cases := map[Kind]bool{
		KindUnavailable:      false,
		KindNetwork:          true,
		KindRateLimit:        true,
		KindInvalidInput:     false,
		KindProcessingFailed: false,
		KindTimeout:          true,
	}
	for k, want := range cases {
		assert.Equal(t, want, New(k, "x").Retryable, "kind %s", k)
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	t.Run("nil", func(t *testing.T) {
		assert.False(t, IsRetryable(nil))
	})
	t.Run("wrapped error keeps flag", func(t *testing.T) {
		err := fmt.Errorf("call: %w", New(KindNetwork, "reset"))
		assert.True(t, IsRetryable(err))
	})
	t.Run("explicit override", func(t *testing.T) {
		e := New(KindProcessingFailed, "model overloaded")
		e.Retryable = true
		assert.True(t, IsRetryable(e))
	})
	t.Run("deadline exceeded", func(t *testing.T) {
		assert.True(t, IsRetryable(context.DeadlineExceeded))
	})
	t.Run("unknown error is terminal", func(t *testing.T) {
		assert.False(t, IsRetryable(errors.New("boom")))
	})
}

func TestCompoundRetryableIsConjunction(t *testing.T) {
	t.Parallel()

	both := &CompoundError{Errors: []error{New(KindNetwork, "a"), New(KindRateLimit, "b")}}
	assert.True(t, both.Retryable())
	assert.True(t, IsRetryable(both))

	mixed := &CompoundError{Errors: []error{New(KindNetwork, "a"), New(KindInvalidInput, "b")}}
	assert.False(t, mixed.Retryable())

	assert.False(t, (&CompoundError{}).Retryable())
}

func TestCompoundUnwrap(t *testing.T) {
	t.Parallel()

	primary := Unavailable("gemini", "no api key")
	fallback := Wrap(KindNetwork, "dial", errors.New("connection refused"))
	fallback.Service = "openai"
	fallback.Attempts = 3

	ce := &CompoundError{Errors: []error{primary, fallback}}

	var se *Error
	require.ErrorAs(t, ce, &se)
	assert.Equal(t, KindUnavailable, se.Kind)

	assert.ErrorIs(t, ce, New(KindNetwork, ""))
	assert.NotErrorIs(t, ce, New(KindRateLimit, ""))

	msg := ce.Error()
	assert.Contains(t, msg, "gemini: service-unavailable: no api key")
	assert.Contains(t, msg, "openai: network: dial: connection refused (after 3 attempts)")
}

func TestIsMatchesService(t *testing.T) {
	t.Parallel()

	e := Unavailable("gemini", "down")
	assert.ErrorIs(t, e, &Error{Kind: KindUnavailable, Service: "gemini"})
	assert.NotErrorIs(t, e, &Error{Kind: KindUnavailable, Service: "openai"})
}

func TestAsClassifiesPlainErrors(t *testing.T) {
	t.Parallel()

	plain := errors.New("bad json")
	got := As(plain)
	assert.Equal(t, KindProcessingFailed, got.Kind)
	assert.ErrorIs(t, got, plain)

	got = As(fmt.Errorf("attempt: %w", context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, got.Kind)
	assert.True(t, got.Retryable)

	orig := New(KindRateLimit, "429")
	assert.Same(t, orig, As(orig))
	assert.Equal(t, KindRateLimit, KindOf(fmt.Errorf("x: %w", orig)))
}

func TestForStatus(t *testing.T) {
	t.Parallel()

	cases := map[int]Kind{
		429: KindRateLimit,
		408: KindTimeout,
		500: KindNetwork,
		503: KindNetwork,
		504: KindTimeout,
		400: KindInvalidInput,
		413: KindInvalidInput,
		401: KindUnavailable,
		403: KindUnavailable,
		404: KindUnavailable,
		409: KindProcessingFailed,
	}
	for code, want := range cases {
		assert.Equal(t, want, ForStatus(code), "status %d", code)
	}
}
