// Package classify assigns industry labels, keywords, and size bands to
// company records, using an LLM when available and keyword rules otherwise.
package classify

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// DefaultIndustry is assigned when no rule matches.
const DefaultIndustry = "Professional Services"

type ruleConfig struct {
	Industries []string            `yaml:"industries"`
	Keywords   map[string][]string `yaml:"keywords"`
}

// RuleClassifier scores industry keyword hits over a company description.
type RuleClassifier struct {
	industries []string
	keywords   map[string][]string
}

// NewRuleClassifier loads the embedded taxonomy.
func NewRuleClassifier() (*RuleClassifier, error) {
	var cfg ruleConfig
	if err := yaml.Unmarshal(rulesYAML, &cfg); err != nil {
		return nil, eris.Wrap(err, "classify: parse rules")
	}
	if len(cfg.Industries) == 0 || len(cfg.Keywords) == 0 {
		return nil, eris.New("classify: empty rules")
	}
	return &RuleClassifier{industries: cfg.Industries, keywords: cfg.Keywords}, nil
}

// Industries returns the taxonomy in declaration order.
func (r *RuleClassifier) Industries() []string { return r.industries }

// Classify returns the industry whose keywords occur most often in the
// description. Ties break by taxonomy order; no hits yield DefaultIndustry.
func (r *RuleClassifier) Classify(description string) string {
	lower := strings.ToLower(description)

	best := ""
	bestScore := 0
	for _, industry := range r.industries {
		score := 0
		for _, kw := range r.keywords[industry] {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = industry
			bestScore = score
		}
	}

	if best == "" {
		return DefaultIndustry
	}
	return best
}
