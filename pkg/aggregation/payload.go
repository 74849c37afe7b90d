package aggregation

import (
	"fmt"
	"math"

	"github.com/earlyguard/platform/pkg/assessment"
)

// Safe defaults substituted when a field arrives malformed (NaN, infinite,
// or non-positive where a measurement is required). These mirror the nominal
// values the prediction services were trained around and guarantee a service
// never sees a hole in its payload.
const (
	defaultGlucose       = 100.0
	defaultBloodPressure = 70.0
	defaultSkinThickness = 20.0
	defaultInsulin       = 80.0
	defaultBMI           = 25.0
	defaultAge           = 30.0
	defaultRestingBP     = 120.0
	defaultCholesterol   = 200.0
	defaultMaxHeartRate  = 150.0
)

// BuildPayload coerces canonical inputs into the flat field map the domain's
// prediction service expects. Malformed values never abort aggregation: they
// are substituted here and reported back as data-quality warnings.
func BuildPayload(domain assessment.Domain, profile assessment.UserProfile, inputs assessment.ClinicalInputs) (map[string]interface{}, []string) {
	switch domain {
	case assessment.DomainMetabolic:
		return metabolicPayload(profile, inputs)
	case assessment.DomainCardiac:
		return cardiacPayload(profile, inputs)
	case assessment.DomainHepatic:
		return hepaticPayload(profile, inputs)
	case assessment.DomainMental:
		return mentalPayload(inputs)
	}
	return nil, []string{fmt.Sprintf("unknown domain %q", domain)}
}

func metabolicPayload(profile assessment.UserProfile, inputs assessment.ClinicalInputs) (map[string]interface{}, []string) {
	var warnings []string
	m := inputs.Metabolic

	pregnancies := 0
	if profile.Sex == assessment.SexFemale && profile.Pregnancies > 0 {
		pregnancies = profile.Pregnancies
	}

	pedigree := 0.2
	if m.FamilyHistory {
		pedigree = 0.8
	}

	return map[string]interface{}{
		"Pregnancies":              pregnancies,
		"Glucose":                  measurement("glucose", m.Glucose, defaultGlucose, &warnings),
		"BloodPressure":            measurement("blood_pressure", m.BloodPressure, defaultBloodPressure, &warnings),
		"SkinThickness":            measurement("skin_thickness", m.SkinThickness, defaultSkinThickness, &warnings),
		"Insulin":                  measurement("insulin", m.Insulin, defaultInsulin, &warnings),
		"BMI":                      measurement("bmi", m.BMI, defaultBMI, &warnings),
		"DiabetesPedigreeFunction": pedigree,
		"Age":                      age(profile, &warnings),
	}, warnings
}

func cardiacPayload(profile assessment.UserProfile, inputs assessment.ClinicalInputs) (map[string]interface{}, []string) {
	var warnings []string
	c := inputs.Cardiac

	sex := 0
	if profile.Sex == assessment.SexMale {
		sex = 1
	}

	// Fasting blood sugar flag is derived from the metabolic glucose
	// reading rather than collected twice.
	fbs := 0
	if inputs.Metabolic.Glucose > 120 {
		fbs = 1
	}

	exang := 0
	if c.ExerciseAngina {
		exang = 1
	}

	oldpeak := c.Oldpeak
	if math.IsNaN(oldpeak) || math.IsInf(oldpeak, 0) || oldpeak < 0 {
		warnings = append(warnings, fmt.Sprintf("oldpeak value %v replaced with 0", oldpeak))
		oldpeak = 0
	}

	ca := c.MajorVessels
	if ca < 0 || ca > 3 {
		warnings = append(warnings, fmt.Sprintf("major_vessels value %d replaced with 0", ca))
		ca = 0
	}

	return map[string]interface{}{
		"age":      age(profile, &warnings),
		"sex":      sex,
		"cp":       chestPainCode(c.ChestPain, &warnings),
		"trestbps": measurement("resting_bp", c.RestingBP, defaultRestingBP, &warnings),
		"chol":     measurement("cholesterol", c.Cholesterol, defaultCholesterol, &warnings),
		"fbs":      fbs,
		"restecg":  "0",
		"thalach":  measurement("max_heart_rate", c.MaxHeartRate, defaultMaxHeartRate, &warnings),
		"exang":    exang,
		"oldpeak":  oldpeak,
		"slope":    slopeCode(c.Slope, &warnings),
		"ca":       ca,
		"thal":     thalCode(c.Thalassemia, &warnings),
	}, warnings
}

func hepaticPayload(profile assessment.UserProfile, inputs assessment.ClinicalInputs) (map[string]interface{}, []string) {
	var warnings []string
	h := inputs.Hepatic
	defaults := assessment.DefaultInputs().Hepatic

	gender := "Female"
	if profile.Sex == assessment.SexMale {
		gender = "Male"
	}

	// Field names follow the liver model's training columns verbatim,
	// including their historical spellings.
	return map[string]interface{}{
		"Age":                        age(profile, &warnings),
		"Gender":                     gender,
		"Total_Bilirubin":            measurement("total_bilirubin", h.TotalBilirubin, defaults.TotalBilirubin, &warnings),
		"Direct_Bilirubin":           measurement("direct_bilirubin", h.DirectBilirubin, defaults.DirectBilirubin, &warnings),
		"Alkaline_Phosphotase":       measurement("alkaline_phosphatase", h.AlkalinePhosphatase, defaults.AlkalinePhosphatase, &warnings),
		"Alamine_Aminotransferase":   measurement("alamine_aminotransferase", h.AlamineTransferase, defaults.AlamineTransferase, &warnings),
		"Aspartate_Aminotransferase": measurement("aspartate_aminotransferase", h.AspartateTransferase, defaults.AspartateTransferase, &warnings),
		"Total_Protiens":             measurement("total_proteins", h.TotalProteins, defaults.TotalProteins, &warnings),
		"Albumin":                    measurement("albumin", h.Albumin, defaults.Albumin, &warnings),
		"Albumin_and_Globulin_Ratio": measurement("albumin_globulin_ratio", h.AlbuminGlobulinRatio, defaults.AlbuminGlobulinRatio, &warnings),
	}, warnings
}

func mentalPayload(inputs assessment.ClinicalInputs) (map[string]interface{}, []string) {
	var warnings []string
	m := inputs.Mental

	return map[string]interface{}{
		"stress_level":  scale("stress_level", m.StressLevel, 5, &warnings),
		"workload":      scale("workload", m.Workload, 5, &warnings),
		"sleep_quality": scale("sleep_quality", m.SleepQuality, 7, &warnings),
	}, warnings
}

// measurement validates a positive clinical measurement, substituting the
// documented default for NaN, infinite or non-positive values.
func measurement(field string, value, fallback float64, warnings *[]string) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		*warnings = append(*warnings, fmt.Sprintf("%s value %v replaced with default %v", field, value, fallback))
		return fallback
	}
	return value
}

// scale validates a 0-10 self-reported rating.
func scale(field string, value, fallback int, warnings *[]string) int {
	if value < 0 || value > 10 {
		*warnings = append(*warnings, fmt.Sprintf("%s value %d replaced with default %d", field, value, fallback))
		return fallback
	}
	return value
}

func age(profile assessment.UserProfile, warnings *[]string) float64 {
	if profile.Age < 1 || profile.Age > 120 {
		*warnings = append(*warnings, fmt.Sprintf("age value %d replaced with default %v", profile.Age, defaultAge))
		return defaultAge
	}
	return float64(profile.Age)
}

// The cardiac service takes its categoricals as short code strings matching
// the model's one-hot training columns.
func chestPainCode(value string, warnings *[]string) string {
	switch value {
	case assessment.ChestPainTypical:
		return "0"
	case assessment.ChestPainAtypical:
		return "1"
	case assessment.ChestPainNonAnginal:
		return "2"
	case assessment.ChestPainAsymptomatic:
		return "3"
	}
	*warnings = append(*warnings, fmt.Sprintf("unrecognized chest pain type %q replaced with %q", value, assessment.ChestPainTypical))
	return "0"
}

func slopeCode(value string, warnings *[]string) string {
	switch value {
	case assessment.SlopeUpsloping:
		return "0"
	case assessment.SlopeFlat:
		return "1"
	case assessment.SlopeDownsloping:
		return "2"
	}
	*warnings = append(*warnings, fmt.Sprintf("unrecognized slope %q replaced with %q", value, assessment.SlopeFlat))
	return "1"
}

func thalCode(value string, warnings *[]string) string {
	switch value {
	case assessment.ThalNormal:
		return "1"
	case assessment.ThalFixed:
		return "2"
	case assessment.ThalReversible:
		return "3"
	}
	*warnings = append(*warnings, fmt.Sprintf("unrecognized thalassemia type %q replaced with %q", value, assessment.ThalNormal))
	return "1"
}
