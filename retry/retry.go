// Package retry runs an operation with bounded attempts, exponential backoff
// and jitter. Each attempt runs under its own timeout; the caller's context
// bounds the whole sequence.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/unkn0wn-root/lingocache/svcerr"
)

const (
	defaultMaxRetries     = 3
	defaultBaseDelay      = time.Second
	defaultMaxDelay       = 10 * time.Second
	defaultMultiplier     = 2.0
	defaultJitterFraction = 0.2
	defaultAttemptTimeout = 15 * time.Second
)

// Config tunes a retry sequence. Zero fields take defaults.
type Config struct {
	MaxRetries     int           // total attempts; 0 => 3
	BaseDelay      time.Duration // 0 => 1s
	MaxDelay       time.Duration // 0 => 10s
	Multiplier     float64       // 0 => 2
	JitterFraction float64       // 0 => 0.2; negative disables jitter
	AttemptTimeout time.Duration // 0 => 15s; negative disables the per-attempt timeout

	// OnRetry, if set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)

	rand  func() float64
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the defaults spelled out.
func DefaultConfig() Config { return Config{}.withDefaults() }

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.Multiplier <= 0 {
		c.Multiplier = defaultMultiplier
	}
	if c.JitterFraction == 0 {
		c.JitterFraction = defaultJitterFraction
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}
	if c.rand == nil {
		c.rand = rand.Float64
	}
	if c.sleep == nil {
		c.sleep = wait
	}
	return c
}

// Delay is the backoff before the attempt following attempt n (1-based),
// for a uniform random r in [0,1).
func (c Config) Delay(n int, r float64) time.Duration {
	c = c.withDefaults()
	if n < 1 {
		n = 1
	}
	maxD := float64(c.MaxDelay)
	d := math.Min(float64(c.BaseDelay)*math.Pow(c.Multiplier, float64(n-1)), maxD)
	if c.JitterFraction > 0 {
		d *= 1 + c.JitterFraction*(r-0.5)
	}
	d = math.Max(0, math.Min(d, maxD))
	return time.Duration(d).Truncate(time.Millisecond)
}

// Do runs op until it succeeds, returns an error isRetryable rejects, or the
// attempt budget is spent. A nil isRetryable means svcerr.IsRetryable.
//
// Failures are returned as *svcerr.Error carrying the attempt count. Caller
// cancellation is returned as the context's error.
func Do(ctx context.Context, op func(ctx context.Context) error, isRetryable func(error) bool, cfg Config) error {
	_, err := Value(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	}, isRetryable, cfg)
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, op func(ctx context.Context) (T, error), isRetryable func(error) bool, cfg Config) (T, error) {
	cfg = cfg.withDefaults()
	if isRetryable == nil {
		isRetryable = svcerr.IsRetryable
	}

	var zero T
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		v, err := runAttempt(ctx, op, cfg.AttemptTimeout)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if !isRetryable(err) || attempt >= cfg.MaxRetries {
			return zero, annotate(err, attempt)
		}

		delay := cfg.Delay(attempt, cfg.rand())
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}
		if werr := cfg.sleep(ctx, delay); werr != nil {
			return zero, werr
		}
	}
}

type result[T any] struct {
	v   T
	err error
}

func runAttempt[T any](ctx context.Context, op func(ctx context.Context) (T, error), timeout time.Duration) (T, error) {
	if timeout < 0 {
		return op(ctx)
	}

	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan result[T], 1) // buffered so an abandoned attempt can finish
	go func() {
		v, err := op(actx)
		done <- result[T]{v, err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return zero, timeoutErr(timeout, r.err)
		}
		return r.v, r.err
	case <-actx.Done():
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		return zero, timeoutErr(timeout, actx.Err())
	}
}

func timeoutErr(d time.Duration, cause error) error {
	// keep the service name if the attempt already classified itself
	e := svcerr.Wrap(svcerr.KindTimeout, fmt.Sprintf("attempt exceeded %s", d), cause)
	var se *svcerr.Error
	if errors.As(cause, &se) {
		e.Service = se.Service
	}
	return e
}

func annotate(err error, attempts int) error {
	cp := *svcerr.As(err)
	cp.Attempts = attempts
	return &cp
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
