package extraction

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulesDefaultsWhenUnconfigured(t *testing.T) {
	cfg, err := LoadRules("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if len(cfg.Rules) != 4 {
		t.Fatalf("expected 4 default rules, got %d", len(cfg.Rules))
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - field: glucose
    synonyms: ["glucose", "blood sugar"]
    value: '\d{2,3}'
    enabled: true
  - field: heart_rate
    synonyms: ["hr"]
    value: '\d{2,3}'
    enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	cfg, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if len(cfg.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(cfg.Rules))
	}

	parser, err := NewParser(cfg)
	if err != nil {
		t.Fatalf("compile rules: %v", err)
	}

	got := parser.Parse("blood sugar 132, hr 75")
	if got[FieldGlucose] != 132 {
		t.Fatalf("expected glucose 132 via custom synonym, got %v", got)
	}
	if _, ok := got[FieldHeartRate]; ok {
		t.Fatal("disabled rule must not produce candidates")
	}
}

func TestLoadRulesMissingFileFallsBackWithError(t *testing.T) {
	cfg, err := LoadRules("/nonexistent/rules.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if len(cfg.Rules) == 0 {
		t.Fatal("expected defaults alongside the error")
	}
}
