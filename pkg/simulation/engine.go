package simulation

import (
	"context"
	"time"

	"github.com/earlyguard/platform/pkg/aggregation"
	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/observability/metrics"
)

// Result is the transient outcome of one what-if run: per-domain scores for
// the simulated subset only. No composite, no verification flag, and it is
// never stored alongside the canonical assessment result.
type Result struct {
	Scores map[assessment.Domain]float64 `json:"scores"`
	Levels map[assessment.Domain]string  `json:"levels"`
	RanAt  time.Time                     `json:"ran_at"`
}

// Engine re-runs the aggregation path over a caller-supplied alternate input
// set without ever touching canonical state. Safe to invoke any number of
// times, including concurrently; each run is independent.
type Engine struct {
	agg *aggregation.Engine
}

func New(agg *aggregation.Engine) *Engine {
	return &Engine{agg: agg}
}

// Run scores the requested domains against the hypothetical inputs. The
// inputs must be a distinct copy; Run clones defensively so a caller holding
// a live reference still cannot be aliased into engine state.
func (e *Engine) Run(ctx context.Context, profile assessment.UserProfile, domains []assessment.Domain, inputs assessment.ClinicalInputs) (*Result, error) {
	outcomes, err := e.agg.ScoreSubset(ctx, profile, inputs.Clone(), domains)
	if err != nil {
		return nil, err
	}
	metrics.IncSimulationRun()

	result := &Result{
		Scores: make(map[assessment.Domain]float64, len(outcomes)),
		Levels: make(map[assessment.Domain]string, len(outcomes)),
		RanAt:  time.Now().UTC(),
	}
	for _, o := range outcomes {
		result.Scores[o.Domain] = o.Score
		result.Levels[o.Domain] = o.Level
	}
	return result, nil
}
