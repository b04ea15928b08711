package core

import (
	"errors"
	"fmt"
)

var (
	ErrModelTimeout              = errors.New("model timeout")
	ErrModelUnavailable          = errors.New("model unavailable")
	ErrModelRateLimited          = errors.New("model rate limited")
	ErrClassificationAmbiguous   = errors.New("classification ambiguous")
	ErrRecommendationUnavailable = errors.New("recommendation unavailable")
	ErrInvariantViolation        = errors.New("invariant violation")
	ErrTurnInProgress            = errors.New("turn in progress")
	ErrTurnAborted               = errors.New("turn aborted")
	ErrEmptyInput                = errors.New("empty input")
	ErrUnknownAgent              = errors.New("unknown agent")
)

type ModelErrorKind int

const (
	ModelUnavailable ModelErrorKind = iota
	ModelTimeout
	ModelRateLimited
)

func (k ModelErrorKind) String() string {
	switch k {
	case ModelTimeout:
		return "timeout"
	case ModelRateLimited:
		return "rate_limited"
	default:
		return "unavailable"
	}
}

func (k ModelErrorKind) sentinel() error {
	switch k {
	case ModelTimeout:
		return ErrModelTimeout
	case ModelRateLimited:
		return ErrModelRateLimited
	default:
		return ErrModelUnavailable
	}
}

// ModelError is the classified failure of the model capability. It matches
// the sentinel of its kind with errors.Is.
type ModelError struct {
	Kind     ModelErrorKind
	Attempts int
	Err      error
}

func NewModelError(kind ModelErrorKind, err error) *ModelError {
	return &ModelError{Kind: kind, Err: err}
}

func (e *ModelError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("model %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("model %s: %v", e.Kind, e.Err)
}

func (e *ModelError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

// IsModelFailure reports whether err came from the model capability.
func IsModelFailure(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}
