package match

import (
	"strings"

	"github.com/sells-group/registry-etl/internal/model"
)

// DefaultThreshold is the fuzzy name score at or above which two records are
// treated as the same entity.
const DefaultThreshold = 85

// Matcher finds the canonical record a candidate belongs to. Identity checks
// run as a priority cascade: exact UEN, then normalized website host, then
// fuzzy name score at or above the threshold. Each pass scans canonical
// records in insertion order and the first hit wins.
type Matcher struct {
	scorer    *Scorer
	threshold float64
}

// NewMatcher builds a Matcher. A threshold <= 0 falls back to DefaultThreshold.
func NewMatcher(scorer *Scorer, threshold float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{scorer: scorer, threshold: threshold}
}

// Threshold reports the fuzzy score cutoff in use.
func (m *Matcher) Threshold() float64 { return m.threshold }

// FindMatch returns the index in existing of the record that candidate
// duplicates, or (0, false) when the candidate is a new entity.
//
// Each criterion gets a full pass over existing before the next criterion is
// tried, so a later record matching by UEN beats an earlier record matching
// only by name. Criterion priority outranks insertion order; insertion order
// breaks ties within a criterion.
func (m *Matcher) FindMatch(candidate model.Record, existing []model.Record) (int, bool) {
	if uen := strings.TrimSpace(candidate.UEN); uen != "" {
		for i, rec := range existing {
			if strings.TrimSpace(rec.UEN) == uen {
				return i, true
			}
		}
	}

	if host := normalizeHost(candidate.Website); host != "" {
		for i, rec := range existing {
			if normalizeHost(rec.Website) == host {
				return i, true
			}
		}
	}

	if NormalizeName(candidate.CompanyName) != "" {
		for i, rec := range existing {
			if m.scorer.Score(candidate.CompanyName, rec.CompanyName) >= m.threshold {
				return i, true
			}
		}
	}

	return 0, false
}

// normalizeHost reduces a website value to a comparable host: lower-cased,
// scheme and path stripped, leading www. removed.
func normalizeHost(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimPrefix(s, "www.")
}
