package recommend

import (
	"context"
	"math"
	"sort"

	"github.com/sandevgo/emilia/internal/core"
	"github.com/sandevgo/emilia/pkg/log"
)

// maxDistance is the diagonal of the valence x arousal plane.
var maxDistance = math.Hypot(core.MaxValence-core.MinValence, core.MaxArousal-core.MinArousal)

type Source interface {
	Each(fn func(core.ContentItem))
}

type Config struct {
	Limit        int
	MinScore     float64
	ContextBonus float64
}

type Request struct {
	State    core.EmotionalState
	Route    core.RouteDecision
	Excluded map[string]struct{}
}

type Recommender struct {
	src Source
	cfg Config
}

func New(src Source, cfg Config) *Recommender {
	return &Recommender{src: src, cfg: cfg}
}

type scored struct {
	item  core.ContentItem
	score float64
}

// Recommend returns at most Limit items ranked by closeness of their trigger
// midpoint to the current state, with a bonus for the routed need. Crisis
// items are offered only on crisis routing. An empty result is not an error.
func (r *Recommender) Recommend(ctx context.Context, req Request) []core.ContentItem {
	if r.cfg.Limit <= 0 {
		return nil
	}

	want := core.CategoryFor(req.Route.Agent)
	crisis := req.Route.CrisisOverride || req.Route.Agent == core.AgentCrisisManagement

	var candidates []scored
	r.src.Each(func(item core.ContentItem) {
		if _, skip := req.Excluded[item.ID]; skip {
			return
		}
		if item.Category == core.CategoryCrisis && !crisis {
			return
		}
		s := Score(req.State, item)
		if item.Category == want {
			s += r.cfg.ContextBonus
		}
		if s < r.cfg.MinScore {
			return
		}
		candidates = append(candidates, scored{item: item, score: s})
	})

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].item.ID < candidates[j].item.ID
	})

	if len(candidates) > r.cfg.Limit {
		candidates = candidates[:r.cfg.Limit]
	}

	out := make([]core.ContentItem, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.item)
	}

	if len(out) == 0 {
		log.FromCtx(ctx).Debug().
			Err(core.ErrRecommendationUnavailable).
			Str("category", string(want)).
			Msg("no content above threshold")
	}
	return out
}

// Score is the similarity of state to the item's trigger midpoint, in [0,1].
func Score(state core.EmotionalState, item core.ContentItem) float64 {
	dv := state.Valence - item.Trigger.Valence.Mid()
	da := state.Arousal - item.Trigger.Arousal.Mid()
	return 1 - math.Hypot(dv, da)/maxDistance
}
