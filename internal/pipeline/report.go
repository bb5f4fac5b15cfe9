package pipeline

import (
	"fmt"
	"strings"

	"github.com/sells-group/registry-etl/internal/match"
	"github.com/sells-group/registry-etl/internal/model"
	"github.com/sells-group/registry-etl/internal/store"
)

// Result carries everything a completed run produced.
type Result struct {
	RunID    string
	Stats    model.RunStats
	Match    match.Report
	Coverage *store.CoverageReport
	Records  []model.Record // canonical records; populated on dry runs for inspection
}

// Report renders the final run summary as printable text.
func (r *Result) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Pipeline run %s\n", r.RunID)
	fmt.Fprintf(&b, "Runtime: %s\n\n", r.Stats.Duration().Round(1e6))

	fmt.Fprintf(&b, "Companies extracted:  %d\n", r.Stats.CompaniesExtracted)
	fmt.Fprintf(&b, "Websites scraped:     %d\n", r.Stats.WebsitesScraped)
	fmt.Fprintf(&b, "Records enriched:     %d\n", r.Stats.RecordsEnriched)
	fmt.Fprintf(&b, "Duplicates removed:   %d (%.1f%%)\n", r.Stats.DuplicatesRemoved, r.Match.DeduplicationRate)
	fmt.Fprintf(&b, "Companies processed:  %d\n", r.Stats.CompaniesProcessed)
	fmt.Fprintf(&b, "Companies loaded:     %d\n", r.Stats.CompaniesLoaded)

	if len(r.Stats.PhaseDurations) > 0 {
		b.WriteString("\nPhase durations:\n")
		for _, phase := range []model.Phase{
			model.PhaseExtracting, model.PhaseEnriching, model.PhaseResolving,
			model.PhaseClassifying, model.PhaseNormalizing, model.PhaseLoading,
		} {
			if d, ok := r.Stats.PhaseDurations[phase]; ok {
				fmt.Fprintf(&b, "  %-12s %s\n", phase, d.Round(1e6))
			}
		}
	}

	if r.Coverage != nil {
		b.WriteString("\nData coverage:\n")
		fmt.Fprintf(&b, "  Total companies:   %d\n", r.Coverage.TotalCompanies)
		fmt.Fprintf(&b, "  Website:           %.1f%%\n", r.Coverage.WebsitePct)
		fmt.Fprintf(&b, "  LinkedIn:          %.1f%%\n", r.Coverage.LinkedinPct)
		fmt.Fprintf(&b, "  Contact email:     %.1f%%\n", r.Coverage.EmailPct)
		fmt.Fprintf(&b, "  Industry:          %.1f%%\n", r.Coverage.IndustryPct)
		fmt.Fprintf(&b, "  Avg quality score: %.1f\n", r.Coverage.AvgQualityScore)
		if len(r.Coverage.TopIndustries) > 0 {
			b.WriteString("  Top industries:\n")
			for _, ic := range r.Coverage.TopIndustries {
				fmt.Fprintf(&b, "    %-24s %d\n", ic.Industry, ic.Count)
			}
		}
	}

	return b.String()
}
