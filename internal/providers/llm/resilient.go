package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sandevgo/emilia/internal/config"
	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
	"github.com/sandevgo/emilia/pkg/retry"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var errLocalRateLimit = errors.New("local request budget exhausted")

type ResilientConfig struct {
	AttemptTimeout time.Duration
	Retry          *retry.Config

	// RateLimit is requests per second; zero disables the limiter.
	RateLimit float64
	RateBurst int

	// BreakerFailures is the consecutive failure count that opens the circuit.
	// Zero disables the breaker.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

func ResilientConfigFrom(cfg *config.ModelConfig) ResilientConfig {
	return ResilientConfig{
		AttemptTimeout: cfg.AttemptTimeout,
		Retry: &retry.Config{
			MaxRetries:    cfg.MaxRetries,
			BackoffFactor: cfg.BackoffFactor,
			InitialDelay:  cfg.InitialBackoff,
			MaxDelay:      cfg.MaxBackoff,
			Jitter:        cfg.BackoffJitter,
		},
		RateLimit:       cfg.RateLimit,
		RateBurst:       cfg.RateBurst,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	}
}

// Resilient is the single path to the model capability. Every attempt gets
// its own deadline; failures are classified into core.ModelError and retried
// with backoff until the attempt budget is spent.
type Resilient struct {
	provider core.AIProvider
	cfg      ResilientConfig
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
}

func NewResilient(provider core.AIProvider, cfg ResilientConfig) *Resilient {
	if cfg.Retry == nil {
		cfg.Retry = retry.NewDefaultConfig()
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 30 * time.Second
	}

	r := &Resilient{
		provider: provider,
		cfg:      cfg,
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	if cfg.BreakerFailures > 0 {
		r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "model",
			MaxRequests: 1,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.BreakerFailures
			},
			IsSuccessful: func(err error) bool {
				// Caller cancellation says nothing about provider health.
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}

	return r
}

func (r *Resilient) Chat(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	logger := log.FromCtx(ctx)

	var (
		out      core.Message
		attempts int
	)

	retrier := retry.NewRetrier(r.cfg.Retry).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Dur("backoff", delay).
				Msg("model call failed, retrying")
		})

	err := retrier.Do(ctx, func(attempt int) error {
		attempts = attempt
		msg, err := r.attempt(ctx, history, tools)
		if err != nil {
			return err
		}
		out = msg
		return nil
	})
	if err == nil {
		return out, nil
	}

	if ctx.Err() != nil {
		return core.Message{}, ctx.Err()
	}

	var me *core.ModelError
	if errors.As(err, &me) {
		me.Attempts = attempts
		return core.Message{}, me
	}
	return core.Message{}, &core.ModelError{Kind: core.ModelUnavailable, Attempts: attempts, Err: err}
}

func (r *Resilient) attempt(ctx context.Context, history []core.Message, tools []core.Tool) (core.Message, error) {
	if r.limiter != nil && !r.limiter.Allow() {
		return core.Message{}, core.NewModelError(core.ModelRateLimited, errLocalRateLimit)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()

	var (
		msg core.Message
		err error
	)
	if r.breaker != nil {
		var res interface{}
		res, err = r.breaker.Execute(func() (interface{}, error) {
			return r.provider.Chat(attemptCtx, history, tools)
		})
		if err == nil {
			msg = res.(core.Message)
		}
	} else {
		msg, err = r.provider.Chat(attemptCtx, history, tools)
	}
	if err == nil {
		return msg, nil
	}

	return core.Message{}, r.classify(ctx, attemptCtx, err)
}

func (r *Resilient) classify(ctx, attemptCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return retry.Unrecoverable(ctx.Err())
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return retry.Unrecoverable(core.NewModelError(core.ModelUnavailable, err))
	}

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewModelError(core.ModelTimeout, err)
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Code == http.StatusTooManyRequests:
			return core.NewModelError(core.ModelRateLimited, err)
		case se.Code >= http.StatusInternalServerError:
			return core.NewModelError(core.ModelUnavailable, err)
		default:
			// Bad request or auth problems will not improve with retries.
			return retry.Unrecoverable(core.NewModelError(core.ModelUnavailable, err))
		}
	}

	return core.NewModelError(core.ModelUnavailable, err)
}

// State reports the breaker state for health output.
func (r *Resilient) State() string {
	if r.breaker == nil {
		return "disabled"
	}
	return r.breaker.State().String()
}
