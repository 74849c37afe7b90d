package aggregation

import "github.com/earlyguard/platform/pkg/assessment"

// fallbackRule is a deterministic, locally-computed substitute for a failed
// prediction call: one named threshold per domain, one high score and one
// low score. Rules are deliberately much cheaper than the external call and
// always produce a concrete number.
type fallbackRule struct {
	reason  string
	exceeds func(assessment.UserProfile, assessment.ClinicalInputs) bool
	high    float64
	low     float64
}

var fallbackTable = map[assessment.Domain]fallbackRule{
	assessment.DomainMetabolic: {
		reason: "fasting glucose at or above 126 mg/dL",
		exceeds: func(_ assessment.UserProfile, in assessment.ClinicalInputs) bool {
			return in.Metabolic.Glucose >= 126
		},
		high: 65,
		low:  20,
	},
	assessment.DomainCardiac: {
		reason: "cholesterol at or above 240 mg/dL or resting BP at or above 140 mmHg",
		exceeds: func(_ assessment.UserProfile, in assessment.ClinicalInputs) bool {
			return in.Cardiac.Cholesterol >= 240 || in.Cardiac.RestingBP >= 140
		},
		high: 60,
		low:  15,
	},
	assessment.DomainHepatic: {
		reason: "total bilirubin above 1.2 mg/dL",
		exceeds: func(_ assessment.UserProfile, in assessment.ClinicalInputs) bool {
			return in.Hepatic.TotalBilirubin > 1.2
		},
		high: 55,
		low:  18,
	},
	assessment.DomainMental: {
		reason: "stress level at or above 8 of 10",
		exceeds: func(_ assessment.UserProfile, in assessment.ClinicalInputs) bool {
			return in.Mental.StressLevel >= 8
		},
		high: 60,
		low:  25,
	},
}

// FallbackScore computes the domain's substitute score and the threshold
// reason that produced it.
func FallbackScore(domain assessment.Domain, profile assessment.UserProfile, inputs assessment.ClinicalInputs) (float64, string) {
	rule, ok := fallbackTable[domain]
	if !ok {
		return 0, ""
	}
	if rule.exceeds(profile, inputs) {
		return rule.high, rule.reason
	}
	return rule.low, rule.reason
}

// levelFor mirrors the risk_level banding the prediction services report.
func levelFor(score float64) string {
	switch {
	case score > 60:
		return "High"
	case score > 30:
		return "Moderate"
	default:
		return "Low"
	}
}
