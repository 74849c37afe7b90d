package assessment

import (
	"time"

	"github.com/google/uuid"
)

// RiskAssessmentResult is the outcome of one completed wizard run. A nil
// domain score means the domain was skipped. Results are immutable: a new
// run produces a new result, never an in-place update.
type RiskAssessmentResult struct {
	ID          uuid.UUID           `json:"id"`
	Scores      map[Domain]*float64 `json:"scores"`
	Levels      map[Domain]string   `json:"levels,omitempty"`
	Composite   float64             `json:"composite"`
	Verified    bool                `json:"verified"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ScoredDomains returns the domains that contributed to the composite.
func (r *RiskAssessmentResult) ScoredDomains() []Domain {
	var out []Domain
	for _, d := range AllDomains() {
		if s, ok := r.Scores[d]; ok && s != nil {
			out = append(out, d)
		}
	}
	return out
}
