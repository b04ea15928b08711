package core

import "fmt"

const (
	MinValence = -1.0
	MaxValence = 1.0
	MinArousal = 0.0
	MaxArousal = 1.0
)

// EmotionalState is the tracked affect of a session.
type EmotionalState struct {
	Valence     float64 `json:"valence"`
	Arousal     float64 `json:"arousal"`
	UpdatedTurn int     `json:"updated_turn"`
}

// NeutralState is the resting point every decay converges to.
func NeutralState() EmotionalState {
	return EmotionalState{}
}

func (s EmotionalState) Validate() error {
	if s.Valence < MinValence || s.Valence > MaxValence {
		return fmt.Errorf("%w: valence %.3f outside [%g,%g]", ErrInvariantViolation, s.Valence, MinValence, MaxValence)
	}
	if s.Arousal < MinArousal || s.Arousal > MaxArousal {
		return fmt.Errorf("%w: arousal %.3f outside [%g,%g]", ErrInvariantViolation, s.Arousal, MinArousal, MaxArousal)
	}
	return nil
}

func (s EmotionalState) String() string {
	return fmt.Sprintf("valence=%+.2f arousal=%.2f", s.Valence, s.Arousal)
}

// StateDelta carries an agent's signal for one turn. An axis without a signal
// decays instead of being updated.
type StateDelta struct {
	Valence    float64 `json:"valence"`
	Arousal    float64 `json:"arousal"`
	HasValence bool    `json:"has_valence"`
	HasArousal bool    `json:"has_arousal"`
}

func NewStateDelta(valence, arousal float64) StateDelta {
	return StateDelta{Valence: valence, Arousal: arousal, HasValence: true, HasArousal: true}
}

func (d StateDelta) IsEmpty() bool {
	return !d.HasValence && !d.HasArousal
}

// Merge adds another signal on top of d, axis by axis.
func (d StateDelta) Merge(o StateDelta) StateDelta {
	if o.HasValence {
		d.Valence += o.Valence
		d.HasValence = true
	}
	if o.HasArousal {
		d.Arousal += o.Arousal
		d.HasArousal = true
	}
	return d
}
