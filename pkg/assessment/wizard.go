package assessment

import (
	"context"
	"errors"
	"fmt"
)

// Step is a wizard position. Three collection steps precede the terminal
// report step; the report is only reachable through Submit.
type Step int

const (
	StepProfile Step = iota + 1
	StepVitals
	StepHistory
	StepReport
)

func (s Step) String() string {
	switch s {
	case StepProfile:
		return "profile"
	case StepVitals:
		return "vitals"
	case StepHistory:
		return "history"
	case StepReport:
		return "report"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ValidStep reports whether s is a known wizard step.
func ValidStep(s Step) bool {
	return s >= StepProfile && s <= StepReport
}

var (
	ErrStepIncomplete    = errors.New("current step is incomplete")
	ErrScoringInProgress = errors.New("scoring is in progress")
	ErrTerminalStep      = errors.New("report is the terminal step")
	ErrMustScore         = errors.New("the report is reached by scoring, not by advancing")
	ErrAtFirstStep       = errors.New("already at the first step")
	ErrUnknownStep       = errors.New("unknown step")
	ErrNotReadyToScore   = errors.New("scoring is only available from the last collection step")
	ErrProfileLocked     = errors.New("profile is immutable once an assessment completes")
	ErrSessionCompleted  = errors.New("assessment completed; restart to edit inputs")
)

// Scorer runs one aggregation over a snapshot of canonical state. The
// aggregation engine implements it.
type Scorer interface {
	Score(ctx context.Context, profile UserProfile, inputs ClinicalInputs, skip map[Domain]bool) (*RiskAssessmentResult, error)
}

// stepComplete is the per-step completion predicate gating Advance.
func stepComplete(step Step, profile UserProfile, inputs ClinicalInputs) error {
	switch step {
	case StepProfile:
		return profile.Validate()
	case StepVitals:
		m := inputs.Metabolic
		c := inputs.Cardiac
		if m.Glucose <= 0 || m.BloodPressure <= 0 || m.BMI <= 0 {
			return fmt.Errorf("%w: metabolic vitals must be positive", ErrStepIncomplete)
		}
		if c.RestingBP <= 0 || c.Cholesterol <= 0 || c.MaxHeartRate <= 0 {
			return fmt.Errorf("%w: cardiac vitals must be positive", ErrStepIncomplete)
		}
		return nil
	case StepHistory:
		// Defaults seed every history field, so the step is always
		// scoreable; only wildly out-of-band codes block completion.
		switch inputs.Cardiac.ChestPain {
		case ChestPainTypical, ChestPainAtypical, ChestPainNonAnginal, ChestPainAsymptomatic:
		default:
			return fmt.Errorf("%w: unknown chest pain type %q", ErrStepIncomplete, inputs.Cardiac.ChestPain)
		}
		return nil
	}
	return nil
}
