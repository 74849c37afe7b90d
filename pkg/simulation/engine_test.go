package simulation

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/earlyguard/platform/pkg/aggregation"
	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// Fallback-only aggregation keeps simulation tests deterministic: no clients
// configured, every domain settles on its heuristic score.
func fallbackEngine() *Engine {
	return New(aggregation.New(nil, nil))
}

func TestRunScoresRequestedDomainsOnly(t *testing.T) {
	profile := assessment.UserProfile{Name: "Lee", Age: 52, Sex: assessment.SexMale}
	inputs := assessment.DefaultInputs()
	inputs.Metabolic.Glucose = 140

	result, err := fallbackEngine().Run(context.Background(), profile, []assessment.Domain{assessment.DomainMetabolic}, inputs)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.Scores) != 1 {
		t.Fatalf("expected one scored domain, got %v", result.Scores)
	}
	if result.Scores[assessment.DomainMetabolic] != 65 {
		t.Fatalf("expected elevated-glucose fallback 65, got %v", result.Scores[assessment.DomainMetabolic])
	}
	if result.Levels[assessment.DomainMetabolic] != "High" {
		t.Fatalf("expected High level, got %q", result.Levels[assessment.DomainMetabolic])
	}
	if result.RanAt.IsZero() {
		t.Fatal("expected RanAt to be set")
	}
}

func TestRunLeavesCallerInputsUntouched(t *testing.T) {
	profile := assessment.UserProfile{Name: "Lee", Age: 52, Sex: assessment.SexMale}

	canonical := assessment.DefaultInputs()
	hypothetical := canonical.Clone()
	hypothetical.Metabolic.Glucose = 200
	hypothetical.Cardiac.Cholesterol = 280

	if _, err := fallbackEngine().Run(context.Background(), profile, assessment.AllDomains(), hypothetical); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if canonical != assessment.DefaultInputs() {
		t.Fatal("simulation must never mutate the canonical inputs")
	}
}

func TestRunRejectsEmptyAndUnknownDomains(t *testing.T) {
	profile := assessment.UserProfile{Name: "Lee", Age: 52, Sex: assessment.SexMale}

	if _, err := fallbackEngine().Run(context.Background(), profile, nil, assessment.DefaultInputs()); !errors.Is(err, aggregation.ErrNoDomains) {
		t.Fatalf("expected ErrNoDomains, got %v", err)
	}
	if _, err := fallbackEngine().Run(context.Background(), profile, []assessment.Domain{"renal"}, assessment.DefaultInputs()); err == nil {
		t.Fatal("expected error for unknown domain")
	}
}
