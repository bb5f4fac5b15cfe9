package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/registry-etl/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func sampleRecords() []model.Record {
	emp := 42
	return []model.Record{
		{
			UEN:               "201912345A",
			CompanyName:       "Acme Widgets Pte Ltd",
			Website:           "https://acme.com.sg",
			Industry:          "Technology",
			NumberOfEmployees: &emp,
			ContactEmail:      "hi@acme.com.sg",
			SourceOfData:      "acra",
		},
		{
			CompanyName: "Orchid Logistics",
			Industry:    "Transportation",
			Linkedin:    "linkedin.com/company/orchid",
		},
	}
}

func TestSQLiteUpsertAndCount(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	n, err := s.UpsertCompanies(ctx, sampleRecords())
	require.NoError(t, err)
	require.Equal(t, 2, n)

	count, err := s.CountCompanies(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestSQLiteUpsertReplacesByUEN(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertCompanies(ctx, sampleRecords())
	require.NoError(t, err)

	// Same UEN, updated fields: row count must not grow.
	updated := []model.Record{{
		UEN:         "201912345A",
		CompanyName: "Acme Widgets International Pte Ltd",
		Industry:    "Manufacturing",
	}}
	_, err = s.UpsertCompanies(ctx, updated)
	require.NoError(t, err)

	count, err := s.CountCompanies(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestSQLiteCoverage(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.UpsertCompanies(ctx, sampleRecords())
	require.NoError(t, err)

	rep, err := s.Coverage(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, rep.TotalCompanies)
	require.InDelta(t, 50.0, rep.WebsitePct, 0.01)
	require.InDelta(t, 50.0, rep.LinkedinPct, 0.01)
	require.InDelta(t, 50.0, rep.EmailPct, 0.01)
	require.InDelta(t, 100.0, rep.IndustryPct, 0.01)
	require.Greater(t, rep.AvgQualityScore, 0.0)
	require.Len(t, rep.TopIndustries, 2)
}

func TestSQLiteCoverageEmpty(t *testing.T) {
	s := newTestSQLite(t)

	rep, err := s.Coverage(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, rep.TotalCompanies)
	require.Zero(t, rep.WebsitePct)
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.Equal(t, model.PhaseIdle, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.PhaseExtracting))

	stats := model.RunStats{RunID: run.ID, CompaniesExtracted: 10, CompaniesLoaded: 8}
	require.NoError(t, s.FinishRun(ctx, run.ID, model.PhaseDone, stats))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, model.PhaseDone, got.Status)
	require.Equal(t, 10, got.Stats.CompaniesExtracted)
	require.Equal(t, 8, got.Stats.CompaniesLoaded)
}

func TestSQLiteRunNotFound(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.Error(t, s.UpdateRunStatus(ctx, "nope", model.PhaseDone))
	_, err := s.GetRun(ctx, "nope")
	require.Error(t, err)
}
