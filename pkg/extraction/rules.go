package extraction

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Field names a metric the parser can propose a candidate for.
type Field string

const (
	FieldGlucose   Field = "glucose"
	FieldHeartRate Field = "heart_rate"
	FieldSteps     Field = "steps"
	FieldSleep     Field = "sleep"
)

// Rule describes one target field: the label synonyms searched for in the
// recognized text and the pattern the following number must match.
type Rule struct {
	Field    string   `yaml:"field" json:"field"`
	Synonyms []string `yaml:"synonyms" json:"synonyms"`
	Value    string   `yaml:"value" json:"value"`
	Enabled  bool     `yaml:"enabled" json:"enabled"`
}

type RulesConfig struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// LoadRules reads a rules file, falling back to the built-in defaults when
// no path is configured.
func LoadRules(path string) (RulesConfig, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	var cfg RulesConfig
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return RulesConfig{}, err
	}

	if len(cfg.Rules) == 0 {
		return RulesConfig{}, errors.New("no extraction rules configured")
	}

	return cfg, nil
}

// DefaultRules covers the wearable/report metrics the vitals step accepts.
// Value patterns bound the plausible magnitude per metric; steps allows a
// thousands separator which is stripped before parsing.
func DefaultRules() RulesConfig {
	return RulesConfig{Rules: []Rule{
		{Field: string(FieldGlucose), Synonyms: []string{"glucose", "sugar"}, Value: `\d{2,3}`, Enabled: true},
		{Field: string(FieldHeartRate), Synonyms: []string{"heart rate", "bpm", "pulse"}, Value: `\d{2,3}`, Enabled: true},
		{Field: string(FieldSteps), Synonyms: []string{"steps", "count"}, Value: `\d{1,5}(?:,\d{3})?`, Enabled: true},
		{Field: string(FieldSleep), Synonyms: []string{"sleep", "duration"}, Value: `\d{1,2}(?:\.\d)?`, Enabled: true},
	}}
}
