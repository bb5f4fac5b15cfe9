package match

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Similarity metric weights. Token-based metrics dominate because Singapore
// registry names differ mostly in word order and suffix noise.
const (
	weightRatio        = 0.2
	weightPartialRatio = 0.2
	weightTokenSort    = 0.3
	weightTokenSet     = 0.3
)

// Scorer computes a 0-100 similarity score between two company names. Scores
// from the same scorer configuration are comparable across installations.
type Scorer struct {
	fuzzyDisabled bool
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithoutFuzzy switches the scorer to the degraded three-tier comparison
// (exact 100, substring 80, otherwise 0). Useful for deterministic smoke runs.
func WithoutFuzzy() ScorerOption {
	return func(s *Scorer) { s.fuzzyDisabled = true }
}

// NewScorer returns a Scorer with the blended fuzzy metrics enabled.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the blended similarity between two raw company names. Both
// names are normalized first; an empty normalized name always scores 0.
func (s *Scorer) Score(a, b string) float64 {
	na := NormalizeName(a)
	nb := NormalizeName(b)
	if na == "" || nb == "" {
		return 0
	}

	if s.fuzzyDisabled {
		return degradedScore(na, nb)
	}

	r := float64(fuzzy.Ratio(na, nb))
	p := float64(fuzzy.PartialRatio(na, nb))
	ts := float64(fuzzy.TokenSortRatio(na, nb))
	tt := float64(fuzzy.TokenSetRatio(na, nb))

	return weightRatio*r + weightPartialRatio*p + weightTokenSort*ts + weightTokenSet*tt
}

func degradedScore(na, nb string) float64 {
	switch {
	case na == nb:
		return 100
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		return 80
	default:
		return 0
	}
}
