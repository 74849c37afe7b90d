package aggregation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/logger"
	"github.com/earlyguard/platform/pkg/observability/metrics"
)

var (
	// ErrNoScorableDomains marks the aggregation-impossible case: every
	// domain skipped, nothing to average. It must surface as an error,
	// never as a bogus zero composite.
	ErrNoScorableDomains = errors.New("no scorable domains: every domain is skipped")

	// ErrNoDomains marks a malformed call with an empty domain subset.
	ErrNoDomains = errors.New("no domains requested")
)

// Engine fans out one prediction call per non-skipped domain, tolerates
// partial failure via per-domain fallback heuristics, and folds the settled
// outcomes into a single composite score.
type Engine struct {
	clients map[assessment.Domain]Client
	health  *HealthCache
}

func New(clients map[assessment.Domain]Client, health *HealthCache) *Engine {
	return &Engine{clients: clients, health: health}
}

// DomainScore is one settled per-domain outcome.
type DomainScore struct {
	Domain assessment.Domain `json:"domain"`
	Score  float64           `json:"score"`
	Level  string            `json:"level"`
	// Live is true when the score came from the service rather than the
	// local fallback heuristic.
	Live bool `json:"live"`
	// Verified is true when the live service reported a model source
	// marker, i.e. a real model answered, not an upstream default.
	Verified bool `json:"verified"`
}

// Score implements assessment.Scorer. All non-skipped domains are dispatched
// concurrently and every call's outcome is observed independently: a slow or
// failing domain never blocks or cancels the others, and the composite is
// only finalized once every call has settled.
func (e *Engine) Score(ctx context.Context, profile assessment.UserProfile, inputs assessment.ClinicalInputs, skip map[assessment.Domain]bool) (*assessment.RiskAssessmentResult, error) {
	var active []assessment.Domain
	for _, d := range assessment.AllDomains() {
		if !skip[d] {
			active = append(active, d)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoScorableDomains
	}

	outcomes := e.settleAll(ctx, profile, inputs, active)

	scores := make(map[assessment.Domain]*float64, len(assessment.AllDomains()))
	levels := make(map[assessment.Domain]string, len(outcomes))
	verified := false
	sum := 0.0
	for _, d := range assessment.AllDomains() {
		if skip[d] {
			scores[d] = nil
		}
	}
	for i := range outcomes {
		o := outcomes[i]
		score := o.Score
		scores[o.Domain] = &score
		levels[o.Domain] = o.Level
		sum += o.Score
		if o.Verified {
			verified = true
		}
	}

	result := &assessment.RiskAssessmentResult{
		ID:          uuid.New(),
		Scores:      scores,
		Levels:      levels,
		Composite:   sum / float64(len(outcomes)),
		Verified:    verified,
		GeneratedAt: time.Now().UTC(),
	}

	logger.Log.WithFields(map[string]interface{}{
		"domains":   len(outcomes),
		"composite": fmt.Sprintf("%.1f", result.Composite),
		"verified":  result.Verified,
	}).Info("Aggregation completed")

	return result, nil
}

// ScoreSubset runs the same per-domain call/fallback path restricted to the
// requested domains, returning settled outcomes without a composite. Used by
// the simulation engine.
func (e *Engine) ScoreSubset(ctx context.Context, profile assessment.UserProfile, inputs assessment.ClinicalInputs, domains []assessment.Domain) ([]DomainScore, error) {
	if len(domains) == 0 {
		return nil, ErrNoDomains
	}

	seen := map[assessment.Domain]bool{}
	var subset []assessment.Domain
	for _, d := range domains {
		if !assessment.ValidDomain(d) {
			return nil, fmt.Errorf("unknown domain %q", d)
		}
		if !seen[d] {
			seen[d] = true
			subset = append(subset, d)
		}
	}

	return e.settleAll(ctx, profile, inputs, subset), nil
}

// settleAll dispatches one goroutine per domain and waits for every outcome,
// success or fallback. There is no required completion order.
func (e *Engine) settleAll(ctx context.Context, profile assessment.UserProfile, inputs assessment.ClinicalInputs, domains []assessment.Domain) []DomainScore {
	outcomes := make([]DomainScore, len(domains))

	var wg sync.WaitGroup
	for i, d := range domains {
		wg.Add(1)
		go func(i int, d assessment.Domain) {
			defer wg.Done()
			outcomes[i] = e.scoreDomain(ctx, d, profile, inputs)
		}(i, d)
	}
	wg.Wait()

	return outcomes
}

func (e *Engine) scoreDomain(ctx context.Context, domain assessment.Domain, profile assessment.UserProfile, inputs assessment.ClinicalInputs) DomainScore {
	payload, warnings := BuildPayload(domain, profile, inputs)
	for _, warning := range warnings {
		metrics.IncDataQualityWarning()
		logger.Log.WithFields(map[string]interface{}{
			"domain": string(domain),
			"detail": warning,
		}).Warn("Data-quality substitution in prediction payload")
	}

	client := e.clients[domain]
	if client == nil {
		logger.Log.WithField("domain", string(domain)).Warn("No prediction client configured, using fallback heuristic")
		return e.fallbackOutcome(domain, profile, inputs, "unconfigured")
	}

	if e.health.Down(ctx, domain) {
		return e.fallbackOutcome(domain, profile, inputs, "service recently down")
	}

	resp, err := client.Predict(ctx, payload)
	if err != nil {
		logger.Log.WithError(err).WithField("domain", string(domain)).Warn("Prediction call failed, using fallback heuristic")
		e.health.MarkDown(ctx, domain)
		return e.fallbackOutcome(domain, profile, inputs, "call failed")
	}
	e.health.MarkUp(ctx, domain)
	metrics.IncLiveScore()

	level := resp.RiskLevel
	if level == "" {
		level = levelFor(resp.RiskScore)
	}

	return DomainScore{
		Domain:   domain,
		Score:    resp.RiskScore,
		Level:    level,
		Live:     true,
		Verified: resp.ModelSource != "",
	}
}

func (e *Engine) fallbackOutcome(domain assessment.Domain, profile assessment.UserProfile, inputs assessment.ClinicalInputs, cause string) DomainScore {
	score, reason := FallbackScore(domain, profile, inputs)
	metrics.IncFallbackScore()
	logger.Log.WithFields(map[string]interface{}{
		"domain": string(domain),
		"cause":  cause,
		"rule":   reason,
		"score":  score,
	}).Info("Fallback score applied")

	return DomainScore{
		Domain: domain,
		Score:  score,
		Level:  levelFor(score),
	}
}
