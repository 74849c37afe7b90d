package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Candidates maps a field to the numeric value found for it. Fields with no
// match are absent, not zero: presence alone signals "found".
type Candidates map[Field]float64

// Clone returns an independent copy.
func (c Candidates) Clone() Candidates {
	out := make(Candidates, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

type compiledRule struct {
	field Field
	re    *regexp.Regexp
}

// Parser maps recognized free text to candidate metrics. It is a pure
// function of its input: no state, no I/O, identical text always yields
// identical candidates.
type Parser struct {
	rules []compiledRule
}

func NewParser(cfg RulesConfig) (*Parser, error) {
	var compiled []compiledRule
	for _, rule := range cfg.Rules {
		if !rule.Enabled {
			continue
		}
		if len(rule.Synonyms) == 0 || rule.Value == "" {
			return nil, fmt.Errorf("extraction rule %q missing synonyms or value pattern", rule.Field)
		}
		escaped := make([]string, len(rule.Synonyms))
		for i, s := range rule.Synonyms {
			escaped[i] = regexp.QuoteMeta(strings.ToLower(s))
		}
		pattern := fmt.Sprintf(`(?i)(?:%s)[\s:]*(%s)`, strings.Join(escaped, "|"), rule.Value)
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("extraction rule %q: %w", rule.Field, err)
		}
		compiled = append(compiled, compiledRule{field: Field(rule.Field), re: re})
	}
	return &Parser{rules: compiled}, nil
}

// Parse scans text for each target field and returns the first numeric match
// per field. When a field's pattern matches more than once, the first match
// in text order wins; later matches are ignored. Unmatched fields are left
// out of the result entirely.
func (p *Parser) Parse(text string) Candidates {
	found := Candidates{}
	if text == "" {
		return found
	}

	for _, rule := range p.rules {
		if _, ok := found[rule.field]; ok {
			continue
		}
		match := rule.re.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		raw := strings.ReplaceAll(match[1], ",", "")
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		found[rule.field] = value
	}

	return found
}
