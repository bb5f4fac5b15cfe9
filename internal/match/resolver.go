package match

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/model"
)

// Report summarizes one resolution pass.
type Report struct {
	OriginalCount     int     `json:"original_count"`
	MatchedCount      int     `json:"matched_count"`
	DuplicatesFound   int     `json:"duplicates_found"`
	DeduplicationRate float64 `json:"deduplication_rate"`
	ThresholdUsed     float64 `json:"threshold_used"`
}

// Resolver deduplicates a batch of records into canonical entities.
type Resolver struct {
	matcher *Matcher
	log     *zap.Logger
}

// NewResolver builds a Resolver around a configured Matcher.
func NewResolver(matcher *Matcher) *Resolver {
	return &Resolver{
		matcher: matcher,
		log:     zap.L().With(zap.String("component", "resolver")),
	}
}

// Resolve scans records in order, merging each into the first canonical
// record it matches or appending it as a new entity. Records without a
// company name are dropped (they cannot be matched) but still count toward
// the original total. The canonical slice preserves first-seen order.
func (r *Resolver) Resolve(records []model.Record) ([]model.Record, Report) {
	canonical := make([]model.Record, 0, len(records))
	dropped := 0

	for _, rec := range records {
		if strings.TrimSpace(rec.CompanyName) == "" {
			dropped++
			continue
		}

		if idx, ok := r.matcher.FindMatch(rec, canonical); ok {
			canonical[idx] = Merge(canonical[idx], rec)
			continue
		}
		canonical = append(canonical, rec.Clone())
	}

	report := buildReport(len(records), len(canonical), r.matcher.Threshold())

	r.log.Info("resolution complete",
		zap.Int("original", report.OriginalCount),
		zap.Int("canonical", report.MatchedCount),
		zap.Int("duplicates", report.DuplicatesFound),
		zap.Int("dropped_unnamed", dropped),
		zap.Float64("dedup_rate_pct", report.DeduplicationRate),
	)

	return canonical, report
}

func buildReport(original, matched int, threshold float64) Report {
	rep := Report{
		OriginalCount:   original,
		MatchedCount:    matched,
		DuplicatesFound: original - matched,
		ThresholdUsed:   threshold,
	}
	if original > 0 {
		rep.DeduplicationRate = float64(rep.DuplicatesFound) / float64(original) * 100
	}
	return rep
}
