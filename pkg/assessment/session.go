package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/earlyguard/platform/pkg/common/logger"
	"github.com/earlyguard/platform/pkg/extraction"
)

// Session owns the canonical state of one assessment run: the profile, the
// clinical inputs, the wizard position and the stored result. All mutation
// goes through its methods under a single lock; collaborators (aggregation,
// simulation, extraction) only ever see clones.
type Session struct {
	mu sync.Mutex

	id        uuid.UUID
	createdAt time.Time
	touchedAt time.Time

	profile UserProfile
	inputs  ClinicalInputs
	step    Step
	scoring bool
	result  *RiskAssessmentResult
}

func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		id:        uuid.New(),
		createdAt: now,
		touchedAt: now,
		inputs:    DefaultInputs(),
		step:      StepProfile,
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// LastActive supports registry expiry sweeps.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchedAt
}

func (s *Session) touch() { s.touchedAt = time.Now().UTC() }

// SetProfile replaces the profile. Rejected once an assessment has
// completed: a new assessment gets a fresh profile via Restart.
func (s *Session) SetProfile(p UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoring {
		return ErrScoringInProgress
	}
	if s.result != nil {
		return ErrProfileLocked
	}
	s.profile = p
	s.touch()
	return nil
}

func (s *Session) UpdateMetabolic(m MetabolicInputs) error {
	return s.mutateInputs(func(c *ClinicalInputs) { c.Metabolic = m })
}

func (s *Session) UpdateCardiac(c CardiacInputs) error {
	return s.mutateInputs(func(ci *ClinicalInputs) { ci.Cardiac = c })
}

func (s *Session) UpdateHepatic(h HepaticInputs, skip bool) error {
	return s.mutateInputs(func(c *ClinicalInputs) {
		c.Hepatic = h
		c.SkipHepatic = skip
	})
}

func (s *Session) UpdateMental(m MentalInputs) error {
	return s.mutateInputs(func(c *ClinicalInputs) { c.Mental = m })
}

func (s *Session) UpdateLifestyle(l LifestyleInputs) error {
	return s.mutateInputs(func(c *ClinicalInputs) { c.Lifestyle = l })
}

func (s *Session) mutateInputs(apply func(*ClinicalInputs)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoring {
		return ErrScoringInProgress
	}
	if s.step == StepReport {
		return ErrSessionCompleted
	}
	apply(&s.inputs)
	s.touch()
	return nil
}

// ApplyCandidates merges a confirmed extraction candidate set into canonical
// inputs. Only fields present in the set are written; everything else keeps
// whatever the user had already entered.
func (s *Session) ApplyCandidates(c extraction.Candidates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoring {
		return ErrScoringInProgress
	}
	if s.step == StepReport {
		return ErrSessionCompleted
	}

	for field, value := range c {
		switch field {
		case extraction.FieldGlucose:
			s.inputs.Metabolic.Glucose = value
		case extraction.FieldHeartRate:
			s.inputs.Cardiac.MaxHeartRate = value
		case extraction.FieldSteps:
			s.inputs.Lifestyle.DailySteps = int(value)
		case extraction.FieldSleep:
			s.inputs.Lifestyle.SleepHours = value
		default:
			logger.Log.WithField("field", string(field)).Warn("Ignoring unknown extraction field")
		}
	}
	s.touch()
	return nil
}

// Advance moves to the next step if the current step's completion predicate
// holds. Advancing past the last collection step is rejected: the report is
// only reachable through Submit.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoring {
		return ErrScoringInProgress
	}
	switch s.step {
	case StepReport:
		return ErrTerminalStep
	case StepHistory:
		return ErrMustScore
	}
	if err := stepComplete(s.step, s.profile, s.inputs); err != nil {
		return err
	}
	s.step++
	s.touch()
	return nil
}

// Retreat moves one step back with no validation.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoring {
		return ErrScoringInProgress
	}
	if s.step == StepProfile {
		return ErrAtFirstStep
	}
	s.step--
	s.touch()
	return nil
}

// JumpTo moves to an arbitrary step, used to revisit inputs or restart the
// flow from the report.
func (s *Session) JumpTo(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoring {
		return ErrScoringInProgress
	}
	if !ValidStep(step) {
		return ErrUnknownStep
	}
	s.step = step
	s.touch()
	return nil
}

// Restart discards the whole run and seeds a fresh profile and defaults.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scoring {
		return ErrScoringInProgress
	}
	s.profile = UserProfile{}
	s.inputs = DefaultInputs()
	s.result = nil
	s.step = StepProfile
	s.touch()
	return nil
}

// Submit runs the scorer against a snapshot of canonical state. While the
// call is in flight the session is in an explicit scoring sub-state that
// rejects Advance, Retreat and duplicate Submits. Scoring failure keeps all
// inputs intact and leaves the session on the last collection step so the
// user can retry.
func (s *Session) Submit(ctx context.Context, scorer Scorer, pause time.Duration) (*RiskAssessmentResult, error) {
	s.mu.Lock()
	if s.scoring {
		s.mu.Unlock()
		return nil, ErrScoringInProgress
	}
	if s.step != StepHistory {
		s.mu.Unlock()
		return nil, ErrNotReadyToScore
	}
	if err := stepComplete(StepHistory, s.profile, s.inputs); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.scoring = true
	profile := s.profile
	inputs := s.inputs.Clone()
	s.mu.Unlock()

	finish := func() {
		s.mu.Lock()
		s.scoring = false
		s.touch()
		s.mu.Unlock()
	}

	if pause > 0 {
		// Deliberate UX pause before scoring begins.
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			finish()
			return nil, ctx.Err()
		}
	}

	result, err := scorer.Score(ctx, profile, inputs, inputs.SkippedDomains())
	if err != nil {
		finish()
		return nil, err
	}

	s.mu.Lock()
	s.scoring = false
	s.result = result
	s.step = StepReport
	s.touch()
	s.mu.Unlock()
	return result, nil
}

// SessionSnapshot is a read-only copy of session state for callers.
type SessionSnapshot struct {
	ID        uuid.UUID             `json:"id"`
	Step      Step                  `json:"step"`
	StepName  string                `json:"step_name"`
	Scoring   bool                  `json:"scoring"`
	Profile   UserProfile           `json:"profile"`
	Inputs    ClinicalInputs        `json:"inputs"`
	Result    *RiskAssessmentResult `json:"result,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionSnapshot{
		ID:        s.id,
		Step:      s.step,
		StepName:  s.step.String(),
		Scoring:   s.scoring,
		Profile:   s.profile,
		Inputs:    s.inputs.Clone(),
		Result:    s.result,
		CreatedAt: s.createdAt,
	}
}

// Profile returns a copy of the current profile.
func (s *Session) Profile() UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Inputs returns a clone of canonical inputs for read-only collaborators.
func (s *Session) Inputs() ClinicalInputs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs.Clone()
}

// Result returns the stored result of the completed run, or nil.
func (s *Session) Result() *RiskAssessmentResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Step returns the current wizard step.
func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}
