package emotion

import (
	"math"

	"github.com/sandevgo/emilia/internal/core"
)

// Tracker owns the update and decay rules of EmotionalState. It holds no
// per-session data and is safe to share.
type Tracker struct {
	decay float64
}

// NewTracker returns a tracker that keeps factor of the deviation from
// neutral on every decay step. factor must lie in (0,1).
func NewTracker(factor float64) *Tracker {
	return &Tracker{decay: factor}
}

func (t *Tracker) Factor() float64 {
	return t.decay
}

// Update adds the delta and clamps both axes. Axes without a signal are left
// untouched.
func (t *Tracker) Update(prior core.EmotionalState, delta core.StateDelta) core.EmotionalState {
	next := prior
	if delta.HasValence {
		next.Valence = clamp(prior.Valence+delta.Valence, core.MinValence, core.MaxValence)
	}
	if delta.HasArousal {
		next.Arousal = clamp(prior.Arousal+delta.Arousal, core.MinArousal, core.MaxArousal)
	}
	return next
}

// Decay pulls both axes toward neutral.
func (t *Tracker) Decay(prior core.EmotionalState) core.EmotionalState {
	next := prior
	next.Valence = t.decayAxis(prior.Valence, core.MinValence, core.MaxValence)
	next.Arousal = t.decayAxis(prior.Arousal, core.MinArousal, core.MaxArousal)
	return next
}

// Apply is the per-turn transition: axes carrying a signal are updated, the
// others decay. The result is stamped with turn.
func (t *Tracker) Apply(prior core.EmotionalState, delta core.StateDelta, turn int) core.EmotionalState {
	next := t.Update(prior, delta)
	if !delta.HasValence {
		next.Valence = t.decayAxis(prior.Valence, core.MinValence, core.MaxValence)
	}
	if !delta.HasArousal {
		next.Arousal = t.decayAxis(prior.Arousal, core.MinArousal, core.MaxArousal)
	}
	next.UpdatedTurn = turn
	return next
}

func (t *Tracker) decayAxis(v, lo, hi float64) float64 {
	v = clamp(v, lo, hi)
	next := v * t.decay
	// Underflow to a subnormal is as good as neutral.
	if math.Abs(next) < 1e-9 {
		return 0
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
