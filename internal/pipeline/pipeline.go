// Package pipeline sequences the registry ETL phases: extract, enrich,
// resolve, classify, normalize, load, report.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/enrich"
	"github.com/sells-group/registry-etl/internal/extract"
	"github.com/sells-group/registry-etl/internal/match"
	"github.com/sells-group/registry-etl/internal/model"
	"github.com/sells-group/registry-etl/internal/store"
)

// Extractor pulls raw records from the configured sources.
type Extractor interface {
	Extract(ctx context.Context, sources []extract.Source, target int) ([]model.Record, error)
}

// Enricher augments records with website data.
type Enricher interface {
	Enrich(ctx context.Context, records []model.Record) ([]model.Record, error)
	Stats() enrich.Stats
}

// Labeler fills missing industry, keyword, and size fields.
type Labeler interface {
	EnhanceAll(ctx context.Context, records []model.Record) []model.Record
}

// Resolver deduplicates records into canonical entities.
type Resolver interface {
	Resolve(records []model.Record) ([]model.Record, match.Report)
}

// Options tune a pipeline run.
type Options struct {
	Sources []extract.Source
	Target  int  // extraction target; <= 0 means DefaultTarget
	DryRun  bool // skip all store writes, keep records on the Result
}

// DefaultTarget is the extraction target when none is configured.
const DefaultTarget = 10000

// Pipeline drives one ETL run end to end. Enricher and Labeler are optional;
// a nil collaborator skips its phase.
type Pipeline struct {
	store     store.Store
	extractor Extractor
	enricher  Enricher
	resolver  Resolver
	labeler   Labeler
	log       *zap.Logger
}

// New wires a Pipeline.
func New(st store.Store, ex Extractor, en Enricher, re Resolver, la Labeler) *Pipeline {
	return &Pipeline{
		store:     st,
		extractor: ex,
		enricher:  en,
		resolver:  re,
		labeler:   la,
		log:       zap.L().With(zap.String("component", "pipeline")),
	}
}

// Run executes the phase sequence. On any phase error the run moves to the
// failed state, bookkeeping is flushed best-effort, and the error propagates
// with the failing phase named.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	target := opts.Target
	if target <= 0 {
		target = DefaultTarget
	}

	result := &Result{
		Stats: model.RunStats{
			StartTime:      time.Now().UTC(),
			PhaseDurations: make(map[model.Phase]time.Duration),
		},
	}

	if !opts.DryRun {
		run, err := p.store.CreateRun(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		result.RunID = run.ID
	} else {
		result.RunID = "dry-run"
	}
	result.Stats.RunID = result.RunID

	setStatus := func(status model.Phase) {
		if opts.DryRun {
			return
		}
		if err := p.store.UpdateRunStatus(ctx, result.RunID, status); err != nil {
			p.log.Warn("status update failed", zap.Error(err))
		}
	}

	// fail records the absorbing failed state, flushes bookkeeping, and
	// wraps the phase error. Cleanup failures are logged, never returned.
	fail := func(phase model.Phase, err error) (*Result, error) {
		result.Stats.EndTime = time.Now().UTC()
		if !opts.DryRun {
			if finishErr := p.store.FinishRun(ctx, result.RunID, model.PhaseFailed, result.Stats); finishErr != nil {
				p.log.Warn("failed-run bookkeeping flush failed", zap.Error(finishErr))
			}
		}
		return nil, eris.Wrapf(err, "pipeline: %s", phase)
	}

	phase := func(name model.Phase, fn func() error) error {
		setStatus(name)
		start := time.Now()
		err := fn()
		result.Stats.PhaseDurations[name] = time.Since(start)
		if err != nil {
			p.log.Error("phase failed", zap.String("phase", string(name)), zap.Error(err))
			return err
		}
		p.log.Info("phase complete",
			zap.String("phase", string(name)),
			zap.Duration("duration", result.Stats.PhaseDurations[name]))
		return nil
	}

	var records []model.Record

	if err := phase(model.PhaseExtracting, func() error {
		var err error
		records, err = p.extractor.Extract(ctx, opts.Sources, target)
		result.Stats.CompaniesExtracted = len(records)
		return err
	}); err != nil {
		return fail(model.PhaseExtracting, err)
	}

	if p.enricher != nil {
		if err := phase(model.PhaseEnriching, func() error {
			var err error
			records, err = p.enricher.Enrich(ctx, records)
			stats := p.enricher.Stats()
			result.Stats.WebsitesScraped = int(stats.WebsitesScraped)
			result.Stats.RecordsEnriched = int(stats.RecordsEnriched)
			return err
		}); err != nil {
			return fail(model.PhaseEnriching, err)
		}
	}

	if err := phase(model.PhaseResolving, func() error {
		records, result.Match = p.resolver.Resolve(records)
		result.Stats.DuplicatesRemoved = result.Match.DuplicatesFound
		return nil
	}); err != nil {
		return fail(model.PhaseResolving, err)
	}

	if p.labeler != nil {
		if err := phase(model.PhaseClassifying, func() error {
			records = p.labeler.EnhanceAll(ctx, records)
			return nil
		}); err != nil {
			return fail(model.PhaseClassifying, err)
		}
	}

	if err := phase(model.PhaseNormalizing, func() error {
		records = Clean(records)
		result.Stats.CompaniesProcessed = len(records)
		return nil
	}); err != nil {
		return fail(model.PhaseNormalizing, err)
	}

	if !opts.DryRun {
		if err := phase(model.PhaseLoading, func() error {
			n, err := p.store.UpsertCompanies(ctx, records)
			result.Stats.CompaniesLoaded = n
			return err
		}); err != nil {
			return fail(model.PhaseLoading, err)
		}

		setStatus(model.PhaseReported)
		coverage, err := p.store.Coverage(ctx)
		if err != nil {
			p.log.Warn("coverage report failed", zap.Error(err))
		} else {
			result.Coverage = coverage
		}
	} else {
		result.Records = records
	}

	result.Stats.EndTime = time.Now().UTC()
	if !opts.DryRun {
		if err := p.store.FinishRun(ctx, result.RunID, model.PhaseDone, result.Stats); err != nil {
			return nil, eris.Wrap(err, "pipeline: finish run")
		}
	}

	p.log.Info("run complete",
		zap.String("run_id", result.RunID),
		zap.Int("extracted", result.Stats.CompaniesExtracted),
		zap.Int("loaded", result.Stats.CompaniesLoaded),
		zap.Duration("runtime", result.Stats.Duration()))

	return result, nil
}
