package assessment

// Categorical codes accepted by the cardiac history inputs.
const (
	ChestPainTypical      = "typical"
	ChestPainAtypical     = "atypical"
	ChestPainNonAnginal   = "non-anginal"
	ChestPainAsymptomatic = "asymptomatic"

	SlopeUpsloping   = "upsloping"
	SlopeFlat        = "flat"
	SlopeDownsloping = "downsloping"

	ThalNormal     = "normal"
	ThalFixed      = "fixed"
	ThalReversible = "reversible"
)

type MetabolicInputs struct {
	Glucose       float64 `json:"glucose"`
	BloodPressure float64 `json:"blood_pressure"`
	SkinThickness float64 `json:"skin_thickness"`
	Insulin       float64 `json:"insulin"`
	BMI           float64 `json:"bmi"`
	FamilyHistory bool    `json:"family_history"`
}

type CardiacInputs struct {
	ChestPain      string  `json:"chest_pain"`
	RestingBP      float64 `json:"resting_bp"`
	Cholesterol    float64 `json:"cholesterol"`
	MaxHeartRate   float64 `json:"max_heart_rate"`
	ExerciseAngina bool    `json:"exercise_angina"`
	Oldpeak        float64 `json:"oldpeak"`
	Slope          string  `json:"slope"`
	MajorVessels   int     `json:"major_vessels"`
	Thalassemia    string  `json:"thalassemia"`
}

type HepaticInputs struct {
	TotalBilirubin       float64 `json:"total_bilirubin"`
	DirectBilirubin      float64 `json:"direct_bilirubin"`
	AlkalinePhosphatase  float64 `json:"alkaline_phosphatase"`
	AlamineTransferase   float64 `json:"alamine_aminotransferase"`
	AspartateTransferase float64 `json:"aspartate_aminotransferase"`
	TotalProteins        float64 `json:"total_proteins"`
	Albumin              float64 `json:"albumin"`
	AlbuminGlobulinRatio float64 `json:"albumin_globulin_ratio"`
}

type MentalInputs struct {
	StressLevel  int `json:"stress_level"`
	Workload     int `json:"workload"`
	SleepQuality int `json:"sleep_quality"`
}

// LifestyleInputs are supplementary metrics, typically filled in from a
// confirmed report extraction rather than typed by hand.
type LifestyleInputs struct {
	DailySteps int     `json:"daily_steps"`
	SleepHours float64 `json:"sleep_hours"`
}

// ClinicalInputs is the canonical per-domain input set backing one
// assessment. Defaults are seeded at session start so an incomplete session
// always has a scoreable value per field. Hepatic is the only domain with a
// skip flag.
type ClinicalInputs struct {
	Metabolic   MetabolicInputs `json:"metabolic"`
	Cardiac     CardiacInputs   `json:"cardiac"`
	Hepatic     HepaticInputs   `json:"hepatic"`
	Mental      MentalInputs    `json:"mental"`
	Lifestyle   LifestyleInputs `json:"lifestyle"`
	SkipHepatic bool            `json:"skip_hepatic"`
}

// DefaultInputs seeds every field with a nominal adult value.
func DefaultInputs() ClinicalInputs {
	return ClinicalInputs{
		Metabolic: MetabolicInputs{
			Glucose:       100,
			BloodPressure: 72,
			SkinThickness: 20,
			Insulin:       80,
			BMI:           25,
			FamilyHistory: true,
		},
		Cardiac: CardiacInputs{
			ChestPain:    ChestPainTypical,
			RestingBP:    120,
			Cholesterol:  200,
			MaxHeartRate: 150,
			Oldpeak:      1.0,
			Slope:        SlopeFlat,
			MajorVessels: 0,
			Thalassemia:  ThalNormal,
		},
		Hepatic: HepaticInputs{
			TotalBilirubin:       0.8,
			DirectBilirubin:      0.2,
			AlkalinePhosphatase:  100,
			AlamineTransferase:   30,
			AspartateTransferase: 25,
			TotalProteins:        7.0,
			Albumin:              4.0,
			AlbuminGlobulinRatio: 1.0,
		},
		Mental: MentalInputs{
			StressLevel:  5,
			Workload:     5,
			SleepQuality: 7,
		},
	}
}

// Clone returns an independent copy. ClinicalInputs carries no reference
// types today, but simulation and extraction code must never receive a
// live alias into canonical state, so the copy is made explicit.
func (c ClinicalInputs) Clone() ClinicalInputs {
	return c
}

// SkippedDomains returns the set of domains excluded from aggregation.
func (c ClinicalInputs) SkippedDomains() map[Domain]bool {
	skip := map[Domain]bool{}
	if c.SkipHepatic {
		skip[DomainHepatic] = true
	}
	return skip
}
