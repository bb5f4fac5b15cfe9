package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sells-group/registry-etl/internal/enrich"
	"github.com/sells-group/registry-etl/internal/extract"
	"github.com/sells-group/registry-etl/internal/match"
	"github.com/sells-group/registry-etl/internal/model"
	"github.com/sells-group/registry-etl/internal/store"
)

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	companies  []model.Record
	runs       map[string]*store.Run
	statuses   []model.Phase
	upsertErr  error
	upsertN    int
	finishDone bool
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*store.Run)}
}

func (m *memStore) UpsertCompanies(_ context.Context, recs []model.Record) (int, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.companies = append(m.companies, recs...)
	m.upsertN += len(recs)
	return len(recs), nil
}

func (m *memStore) CountCompanies(context.Context) (int, error) { return len(m.companies), nil }

func (m *memStore) Coverage(context.Context) (*store.CoverageReport, error) {
	return &store.CoverageReport{TotalCompanies: len(m.companies)}, nil
}

func (m *memStore) CreateRun(context.Context) (*store.Run, error) {
	run := &store.Run{ID: "run-1", Status: model.PhaseIdle}
	m.runs[run.ID] = run
	return run, nil
}

func (m *memStore) UpdateRunStatus(_ context.Context, runID string, status model.Phase) error {
	m.statuses = append(m.statuses, status)
	m.runs[runID].Status = status
	return nil
}

func (m *memStore) FinishRun(_ context.Context, runID string, status model.Phase, stats model.RunStats) error {
	m.runs[runID].Status = status
	m.runs[runID].Stats = stats
	m.finishDone = true
	return nil
}

func (m *memStore) GetRun(_ context.Context, runID string) (*store.Run, error) {
	return m.runs[runID], nil
}

func (m *memStore) Migrate(context.Context) error { return nil }
func (m *memStore) Close() error                  { return nil }

type stubExtractor struct {
	records []model.Record
	err     error
}

func (s *stubExtractor) Extract(context.Context, []extract.Source, int) ([]model.Record, error) {
	return s.records, s.err
}

type stubEnricher struct {
	stats enrich.Stats
}

func (s *stubEnricher) Enrich(_ context.Context, recs []model.Record) ([]model.Record, error) {
	out := make([]model.Record, len(recs))
	copy(out, recs)
	for i := range out {
		if out[i].ContactEmail == "" {
			out[i].ContactEmail = "found@example.sg"
			s.stats.RecordsEnriched++
		}
		s.stats.WebsitesScraped++
	}
	return out, nil
}

func (s *stubEnricher) Stats() enrich.Stats { return s.stats }

func newTestResolver() Resolver {
	return match.NewResolver(match.NewMatcher(match.NewScorer(), match.DefaultThreshold))
}

func extractedRecords() []model.Record {
	return []model.Record{
		{CompanyName: "Acme Widgets Pte Ltd", UEN: "201912345a", Website: "acme.com.sg"},
		{CompanyName: "ACME WIDGETS", UEN: "201912345A"},
		{CompanyName: "Orchid Logistics", UEN: "202054321Z"},
	}
}

func TestRunHappyPath(t *testing.T) {
	st := newMemStore()
	p := New(st, &stubExtractor{records: extractedRecords()}, &stubEnricher{}, newTestResolver(), nil)

	res, err := p.Run(context.Background(), Options{Target: 100})
	if err != nil {
		t.Fatal(err)
	}

	if res.Stats.CompaniesExtracted != 3 {
		t.Errorf("extracted = %d", res.Stats.CompaniesExtracted)
	}
	if res.Stats.DuplicatesRemoved != 1 {
		t.Errorf("duplicates = %d", res.Stats.DuplicatesRemoved)
	}
	if res.Stats.CompaniesLoaded != 2 {
		t.Errorf("loaded = %d", res.Stats.CompaniesLoaded)
	}
	if res.Stats.WebsitesScraped != 3 {
		t.Errorf("scraped = %d", res.Stats.WebsitesScraped)
	}
	if st.runs["run-1"].Status != model.PhaseDone {
		t.Errorf("final status = %q", st.runs["run-1"].Status)
	}
	if !st.finishDone {
		t.Error("run stats never flushed")
	}
	if res.Coverage == nil || res.Coverage.TotalCompanies != 2 {
		t.Errorf("coverage = %+v", res.Coverage)
	}

	// Loaded records went through cleaning.
	for _, rec := range st.companies {
		if rec.HQCountry != DefaultHQCountry {
			t.Errorf("record not cleaned: %+v", rec)
		}
	}
}

func TestRunPhaseOrder(t *testing.T) {
	st := newMemStore()
	p := New(st, &stubExtractor{records: extractedRecords()}, &stubEnricher{}, newTestResolver(), nil)

	if _, err := p.Run(context.Background(), Options{}); err != nil {
		t.Fatal(err)
	}

	want := []model.Phase{
		model.PhaseExtracting, model.PhaseEnriching, model.PhaseResolving,
		model.PhaseNormalizing, model.PhaseLoading, model.PhaseReported,
	}
	if len(st.statuses) != len(want) {
		t.Fatalf("statuses = %v", st.statuses)
	}
	for i, phase := range want {
		if st.statuses[i] != phase {
			t.Errorf("status %d = %q, want %q", i, st.statuses[i], phase)
		}
	}
}

func TestRunExtractionFailure(t *testing.T) {
	st := newMemStore()
	p := New(st, &stubExtractor{err: errors.New("all sources down")}, nil, newTestResolver(), nil)

	_, err := p.Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "extracting") {
		t.Errorf("error does not name the phase: %v", err)
	}
	if st.runs["run-1"].Status != model.PhaseFailed {
		t.Errorf("run status = %q, want failed", st.runs["run-1"].Status)
	}
}

func TestRunLoadFailure(t *testing.T) {
	st := newMemStore()
	st.upsertErr = errors.New("disk full")
	p := New(st, &stubExtractor{records: extractedRecords()}, nil, newTestResolver(), nil)

	_, err := p.Run(context.Background(), Options{})
	if err == nil || !strings.Contains(err.Error(), "loading") {
		t.Fatalf("err = %v", err)
	}
	if st.runs["run-1"].Status != model.PhaseFailed {
		t.Errorf("run status = %q", st.runs["run-1"].Status)
	}
}

func TestRunDryRunSkipsStore(t *testing.T) {
	st := newMemStore()
	p := New(st, &stubExtractor{records: extractedRecords()}, nil, newTestResolver(), nil)

	res, err := p.Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(st.runs) != 0 || st.upsertN != 0 {
		t.Error("dry run touched the store")
	}
	if len(res.Records) != 2 {
		t.Errorf("dry run records = %d, want 2 canonical", len(res.Records))
	}
	if res.Stats.CompaniesLoaded != 0 {
		t.Errorf("dry run loaded = %d", res.Stats.CompaniesLoaded)
	}
}

func TestRunSkipsNilCollaborators(t *testing.T) {
	st := newMemStore()
	p := New(st, &stubExtractor{records: extractedRecords()}, nil, newTestResolver(), nil)

	res, err := p.Run(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Stats.PhaseDurations[model.PhaseEnriching]; ok {
		t.Error("enrich phase ran without an enricher")
	}
	if _, ok := res.Stats.PhaseDurations[model.PhaseClassifying]; ok {
		t.Error("classify phase ran without a labeler")
	}
}

func TestReportRendering(t *testing.T) {
	res := &Result{
		RunID: "run-9",
		Stats: model.RunStats{
			CompaniesExtracted: 10,
			CompaniesLoaded:    8,
			DuplicatesRemoved:  2,
		},
		Match:    match.Report{DeduplicationRate: 20},
		Coverage: &store.CoverageReport{TotalCompanies: 8, WebsitePct: 75},
	}

	text := res.Report()
	for _, want := range []string{"run-9", "Companies extracted:  10", "Duplicates removed:   2 (20.0%)", "Website:           75.0%"} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}
