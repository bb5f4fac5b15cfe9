// Package enrich augments company records with data from their websites,
// running fetches through a bounded worker pool.
package enrich

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/registry-etl/internal/model"
)

// Defaults for the coordinator. Pacing and the per-site timeout match the
// crawl budget used against Singapore registry-listed sites.
const (
	DefaultWorkers    = 4
	DefaultBatchSize  = 100
	DefaultMaxRecords = 200
	DefaultTimeout    = 60 * time.Second
	DefaultDelay      = 500 * time.Millisecond
)

// WebsiteResolver maps a company name to a website URL. The result may be a
// best guess; an empty URL with nil error means no candidate was found.
type WebsiteResolver interface {
	ResolveWebsite(ctx context.Context, companyName string) (string, error)
}

// PageFetcher retrieves a page and extracts a partial record from it.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (model.Record, error)
}

// Options tune the coordinator's concurrency and pacing.
type Options struct {
	Workers    int           // concurrent fetches per batch
	BatchSize  int           // records per batch, processed in submission order
	MaxRecords int           // enrichment cap; records past it pass through untouched
	Timeout    time.Duration // per-site fetch budget
	Delay      time.Duration // pause each task holds after finishing its record
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxRecords <= 0 {
		o.MaxRecords = DefaultMaxRecords
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	return o
}

// Stats is a snapshot of coordinator counters.
type Stats struct {
	WebsitesScraped int64
	RecordsEnriched int64
	Failures        int64
}

// Coordinator fans record enrichment out over a worker pool. A failure on one
// record never affects the others: the original record passes through and the
// batch keeps going.
type Coordinator struct {
	resolver WebsiteResolver
	fetcher  PageFetcher
	opts     Options
	log      *zap.Logger

	scraped  atomic.Int64
	enriched atomic.Int64
	failures atomic.Int64
}

// NewCoordinator wires a Coordinator around its two collaborators.
func NewCoordinator(resolver WebsiteResolver, fetcher PageFetcher, opts Options) *Coordinator {
	return &Coordinator{
		resolver: resolver,
		fetcher:  fetcher,
		opts:     opts.withDefaults(),
		log:      zap.L().With(zap.String("component", "enrich")),
	}
}

// Stats returns the current counter values.
func (c *Coordinator) Stats() Stats {
	return Stats{
		WebsitesScraped: c.scraped.Load(),
		RecordsEnriched: c.enriched.Load(),
		Failures:        c.failures.Load(),
	}
}

// Enrich processes records in fixed-size batches, in submission order, with
// at most Workers concurrent fetches per batch. The returned slice has the
// same length and order as the input; only the first MaxRecords entries are
// candidates for enrichment. Enrich returns an error only when ctx is
// canceled; per-record failures are absorbed.
func (c *Coordinator) Enrich(ctx context.Context, records []model.Record) ([]model.Record, error) {
	out := make([]model.Record, len(records))
	copy(out, records)

	limit := len(records)
	if limit > c.opts.MaxRecords {
		limit = c.opts.MaxRecords
		c.log.Info("enrichment capped",
			zap.Int("records", len(records)),
			zap.Int("cap", c.opts.MaxRecords))
	}

	for start := 0; start < limit; start += c.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			return out, eris.Wrap(err, "enrich: canceled")
		}

		end := start + c.opts.BatchSize
		if end > limit {
			end = limit
		}

		g := new(errgroup.Group)
		g.SetLimit(c.opts.Workers)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				out[i] = c.enrichOne(ctx, records[i])
				// Per-record failures are already counted and logged.
				// Never abort the batch.
				return nil
			})
		}
		g.Wait() //nolint:errcheck // tasks always return nil

		c.log.Debug("batch complete",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int64("scraped", c.scraped.Load()))
	}

	return out, nil
}

func (c *Coordinator) enrichOne(ctx context.Context, rec model.Record) model.Record {
	defer c.pace(ctx)

	url := rec.Website
	if url == "" {
		resolved, err := c.resolver.ResolveWebsite(ctx, rec.CompanyName)
		if err != nil || resolved == "" {
			if err != nil {
				c.log.Debug("website resolution failed",
					zap.String("company", rec.CompanyName),
					zap.Error(err))
			}
			return rec
		}
		url = resolved
	}

	page, err := c.fetchWithTimeout(ctx, url)
	if err != nil {
		c.failures.Add(1)
		c.log.Warn("page fetch failed",
			zap.String("company", rec.CompanyName),
			zap.String("url", url),
			zap.Error(err))
		return rec
	}
	c.scraped.Add(1)

	if page.Website == "" {
		page.Website = url
	}
	merged, changed := fillFromPage(rec, page)
	if changed {
		c.enriched.Add(1)
	}
	return merged
}

// fetchWithTimeout runs the fetcher under a per-task deadline. The select
// guarantees the deadline holds even when the fetcher ignores its context.
func (c *Coordinator) fetchWithTimeout(ctx context.Context, url string) (model.Record, error) {
	tctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	type result struct {
		rec model.Record
		err error
	}
	done := make(chan result, 1)
	go func() {
		rec, err := c.fetcher.FetchPage(tctx, url)
		done <- result{rec, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return model.Record{}, eris.Wrapf(res.err, "enrich: fetch %s", url)
		}
		return res.rec, nil
	case <-tctx.Done():
		return model.Record{}, eris.Wrapf(tctx.Err(), "enrich: fetch %s", url)
	}
}

func (c *Coordinator) pace(ctx context.Context) {
	if c.opts.Delay <= 0 {
		return
	}
	t := time.NewTimer(c.opts.Delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// fillFromPage copies page-derived fields into empty slots of rec. Registry
// data always beats scraped data, so nothing present is ever replaced.
func fillFromPage(rec, page model.Record) (model.Record, bool) {
	out := rec.Clone()
	changed := false

	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}

	fill(&out.Website, page.Website)
	fill(&out.ContactEmail, page.ContactEmail)
	fill(&out.ContactPhone, page.ContactPhone)
	fill(&out.Linkedin, page.Linkedin)
	fill(&out.Facebook, page.Facebook)
	fill(&out.Instagram, page.Instagram)
	fill(&out.ServicesOffered, page.ServicesOffered)
	fill(&out.Keywords, page.Keywords)

	if out.FoundingYear == nil && page.FoundingYear != nil {
		y := *page.FoundingYear
		out.FoundingYear = &y
		changed = true
	}
	if out.NumberOfEmployees == nil && page.NumberOfEmployees != nil {
		n := *page.NumberOfEmployees
		out.NumberOfEmployees = &n
		changed = true
	}

	return out, changed
}
