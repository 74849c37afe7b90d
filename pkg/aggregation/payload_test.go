package aggregation

import (
	"math"
	"os"
	"testing"

	"github.com/earlyguard/platform/pkg/assessment"
	"github.com/earlyguard/platform/pkg/common/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func testProfile() assessment.UserProfile {
	return assessment.UserProfile{Name: "A", Age: 34, Sex: assessment.SexMale}
}

func TestMetabolicPayloadSubstitutesMalformedValues(t *testing.T) {
	inputs := assessment.DefaultInputs()
	inputs.Metabolic.Glucose = math.NaN()
	inputs.Metabolic.BMI = -4

	payload, warnings := BuildPayload(assessment.DomainMetabolic, testProfile(), inputs)
	if payload["Glucose"] != defaultGlucose {
		t.Fatalf("expected default glucose %v, got %v", defaultGlucose, payload["Glucose"])
	}
	if payload["BMI"] != defaultBMI {
		t.Fatalf("expected default bmi %v, got %v", defaultBMI, payload["BMI"])
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 data-quality warnings, got %v", warnings)
	}
}

func TestMetabolicPayloadPedigreeAndPregnancies(t *testing.T) {
	inputs := assessment.DefaultInputs()
	inputs.Metabolic.FamilyHistory = false

	profile := assessment.UserProfile{Name: "B", Age: 31, Sex: assessment.SexFemale, Pregnancies: 2}
	payload, warnings := BuildPayload(assessment.DomainMetabolic, profile, inputs)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if payload["DiabetesPedigreeFunction"] != 0.2 {
		t.Fatalf("expected pedigree 0.2 without family history, got %v", payload["DiabetesPedigreeFunction"])
	}
	if payload["Pregnancies"] != 2 {
		t.Fatalf("expected pregnancies 2, got %v", payload["Pregnancies"])
	}

	// Pregnancy count is only meaningful for female profiles.
	payload, _ = BuildPayload(assessment.DomainMetabolic, testProfile(), inputs)
	if payload["Pregnancies"] != 0 {
		t.Fatalf("expected pregnancies 0 for male profile, got %v", payload["Pregnancies"])
	}
}

func TestCardiacPayloadCategoricalCodes(t *testing.T) {
	inputs := assessment.DefaultInputs()
	inputs.Cardiac.ChestPain = assessment.ChestPainNonAnginal
	inputs.Cardiac.Slope = assessment.SlopeDownsloping
	inputs.Cardiac.Thalassemia = assessment.ThalReversible

	payload, warnings := BuildPayload(assessment.DomainCardiac, testProfile(), inputs)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if payload["cp"] != "2" || payload["slope"] != "2" || payload["thal"] != "3" {
		t.Fatalf("unexpected categorical codes: cp=%v slope=%v thal=%v", payload["cp"], payload["slope"], payload["thal"])
	}
	if payload["sex"] != 1 {
		t.Fatalf("expected sex 1 for male, got %v", payload["sex"])
	}
}

func TestCardiacPayloadRecoversUnknownCodes(t *testing.T) {
	inputs := assessment.DefaultInputs()
	inputs.Cardiac.ChestPain = "stabbing"
	inputs.Cardiac.MajorVessels = 9

	payload, warnings := BuildPayload(assessment.DomainCardiac, testProfile(), inputs)
	if payload["cp"] != "0" {
		t.Fatalf("expected unknown chest pain coerced to \"0\", got %v", payload["cp"])
	}
	if payload["ca"] != 0 {
		t.Fatalf("expected out-of-range vessels coerced to 0, got %v", payload["ca"])
	}
	if len(warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", warnings)
	}
}

func TestCardiacPayloadDerivesFastingBloodSugar(t *testing.T) {
	inputs := assessment.DefaultInputs()
	inputs.Metabolic.Glucose = 150

	payload, _ := BuildPayload(assessment.DomainCardiac, testProfile(), inputs)
	if payload["fbs"] != 1 {
		t.Fatalf("expected fbs 1 for glucose 150, got %v", payload["fbs"])
	}

	inputs.Metabolic.Glucose = 100
	payload, _ = BuildPayload(assessment.DomainCardiac, testProfile(), inputs)
	if payload["fbs"] != 0 {
		t.Fatalf("expected fbs 0 for glucose 100, got %v", payload["fbs"])
	}
}

func TestHepaticPayloadUsesTrainingColumnNames(t *testing.T) {
	payload, warnings := BuildPayload(assessment.DomainHepatic, testProfile(), assessment.DefaultInputs())
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	for _, key := range []string{
		"Age", "Gender", "Total_Bilirubin", "Direct_Bilirubin",
		"Alkaline_Phosphotase", "Alamine_Aminotransferase",
		"Aspartate_Aminotransferase", "Total_Protiens",
		"Albumin", "Albumin_and_Globulin_Ratio",
	} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing payload key %q", key)
		}
	}
	if payload["Gender"] != "Male" {
		t.Fatalf("expected Gender Male, got %v", payload["Gender"])
	}
}

func TestMentalPayloadClampsRatings(t *testing.T) {
	inputs := assessment.DefaultInputs()
	inputs.Mental.StressLevel = 15

	payload, warnings := BuildPayload(assessment.DomainMental, testProfile(), inputs)
	if payload["stress_level"] != 5 {
		t.Fatalf("expected out-of-scale stress replaced with 5, got %v", payload["stress_level"])
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}

func TestPayloadAgeGuard(t *testing.T) {
	payload, warnings := BuildPayload(assessment.DomainMetabolic, assessment.UserProfile{Sex: assessment.SexMale}, assessment.DefaultInputs())
	if payload["Age"] != defaultAge {
		t.Fatalf("expected default age %v, got %v", defaultAge, payload["Age"])
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", warnings)
	}
}
