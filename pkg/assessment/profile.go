package assessment

import (
	"errors"
	"fmt"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// UserProfile holds the demographics collected on the first wizard step.
// Pregnancies is only meaningful for female profiles.
type UserProfile struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Sex         Sex    `json:"sex"`
	Pregnancies int    `json:"pregnancies,omitempty"`
}

var ErrInvalidProfile = errors.New("invalid profile")

// Validate enforces the profile step's completion predicate: name, age and
// sex all present, age within a plausible human range.
func (p UserProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.Age < 1 || p.Age > 120 {
		return fmt.Errorf("%w: age must be between 1 and 120, got %d", ErrInvalidProfile, p.Age)
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		return fmt.Errorf("%w: sex must be %q or %q", ErrInvalidProfile, SexMale, SexFemale)
	}
	if p.Pregnancies < 0 {
		return fmt.Errorf("%w: pregnancies cannot be negative", ErrInvalidProfile)
	}
	return nil
}
