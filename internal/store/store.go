// Package store persists canonical company records and pipeline run
// bookkeeping, with SQLite and Postgres backends.
package store

import (
	"context"
	"time"

	"github.com/sells-group/registry-etl/internal/model"
)

// Run is one pipeline run's bookkeeping row.
type Run struct {
	ID        string         `json:"id" db:"id"`
	Status    model.Phase    `json:"status" db:"status"`
	Stats     model.RunStats `json:"stats" db:"stats"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// IndustryCount is one entry of the coverage report's industry breakdown.
type IndustryCount struct {
	Industry string `json:"industry"`
	Count    int    `json:"count"`
}

// CoverageReport summarizes how complete the loaded dataset is.
type CoverageReport struct {
	TotalCompanies  int             `json:"total_companies"`
	WebsitePct      float64         `json:"website_pct"`
	LinkedinPct     float64         `json:"linkedin_pct"`
	EmailPct        float64         `json:"email_pct"`
	IndustryPct     float64         `json:"industry_pct"`
	AvgQualityScore float64         `json:"avg_quality_score"`
	TopIndustries   []IndustryCount `json:"top_industries"`
}

// Store is the persistence interface for the registry pipeline.
type Store interface {
	// Companies
	UpsertCompanies(ctx context.Context, records []model.Record) (int, error)
	CountCompanies(ctx context.Context) (int, error)
	Coverage(ctx context.Context) (*CoverageReport, error)

	// Runs
	CreateRun(ctx context.Context) (*Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.Phase) error
	FinishRun(ctx context.Context, runID string, status model.Phase, stats model.RunStats) error
	GetRun(ctx context.Context, runID string) (*Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
