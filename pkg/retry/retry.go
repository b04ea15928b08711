package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Operation is one attempt. attempt starts at 1.
type Operation = func(attempt int) error

type Config struct {
	MaxRetries    int
	BackoffFactor float64
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	Jitter        time.Duration
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxRetries:    2,
		BackoffFactor: 2.0,
		InitialDelay:  300 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		Jitter:        50 * time.Millisecond,
	}
}

type unrecoverable struct {
	err error
}

func (u unrecoverable) Error() string { return u.err.Error() }
func (u unrecoverable) Unwrap() error { return u.err }

// Unrecoverable marks err so that Do returns it without further attempts.
func Unrecoverable(err error) error {
	if err == nil {
		return nil
	}
	return unrecoverable{err: err}
}

func IsUnrecoverable(err error) bool {
	var u unrecoverable
	return errors.As(err, &u)
}

type Retrier struct {
	config    *Config
	retryable func(error) bool
	onRetry   func(attempt int, err error, delay time.Duration)
}

func NewRetrier(config *Config) *Retrier {
	return &Retrier{
		config: config,
	}
}

func NewDefaultRetrier() *Retrier {
	return NewRetrier(NewDefaultConfig())
}

// WithRetryable restricts retries to errors the predicate accepts.
func (r *Retrier) WithRetryable(fn func(error) bool) *Retrier {
	r.retryable = fn
	return r
}

// WithOnRetry registers a hook called before each backoff sleep.
func (r *Retrier) WithOnRetry(fn func(attempt int, err error, delay time.Duration)) *Retrier {
	r.onRetry = fn
	return r
}

func (r *Retrier) MaxAttempts() int {
	return r.config.MaxRetries + 1
}

func (r *Retrier) Do(ctx context.Context, op Operation) error {
	var err error
	delay := r.config.InitialDelay
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		err = op(attempt + 1)
		if err == nil {
			return nil
		}

		var u unrecoverable
		if errors.As(err, &u) {
			return u.err
		}
		if r.retryable != nil && !r.retryable(err) {
			return err
		}
		if attempt == r.config.MaxRetries {
			return err
		}

		var jitter time.Duration
		if r.config.Jitter > 0 {
			jitter = time.Duration(rnd.Float64() * float64(r.config.Jitter))
		}
		nextDelay := delay + jitter
		if nextDelay > r.config.MaxDelay {
			nextDelay = r.config.MaxDelay + jitter
		}

		if r.onRetry != nil {
			r.onRetry(attempt+1, err, nextDelay)
		}

		timer := time.NewTimer(nextDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * r.config.BackoffFactor)
		if delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}
	return err
}
