package model

import "time"

// Phase identifies a pipeline stage.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseExtracting  Phase = "extracting"
	PhaseEnriching   Phase = "enriching"
	PhaseResolving   Phase = "resolving"
	PhaseClassifying Phase = "classifying"
	PhaseNormalizing Phase = "normalizing"
	PhaseLoading     Phase = "loading"
	PhaseReported    Phase = "reported"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// RunStats accumulates counters across a pipeline run. Snapshots of it are
// persisted with the run row and rendered in the final report.
type RunStats struct {
	RunID     string    `json:"run_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`

	CompaniesExtracted int `json:"companies_extracted"`
	WebsitesScraped    int `json:"websites_scraped"`
	RecordsEnriched    int `json:"records_enriched"`
	DuplicatesRemoved  int `json:"duplicates_removed"`
	CompaniesProcessed int `json:"companies_processed"`
	CompaniesLoaded    int `json:"companies_loaded"`

	PhaseDurations map[Phase]time.Duration `json:"phase_durations,omitempty"`
}

// Duration returns the wall-clock runtime, using now if the run is still open.
func (s RunStats) Duration() time.Duration {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartTime)
}
