package extract

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/fetcher"
	"github.com/sells-group/registry-etl/internal/model"
)

// DefaultPageSize is the datastore API page size.
const DefaultPageSize = 100

// Options configures the Extractor.
type Options struct {
	DataGovBase string
	PageSize    int
	WorkDir     string // scratch space for FTP downloads
}

// Extractor collects records from every configured source in order, stamping
// each record with its source tag and an ISO-8601 extraction timestamp.
type Extractor struct {
	http     *fetcher.HTTPFetcher
	ftp      *fetcher.FTPFetcher
	baseURL  string
	pageSize int
	workDir  string
	log      *zap.Logger
}

// NewExtractor wires an Extractor over the shared HTTP fetcher and an FTP
// fetcher for bulk drops.
func NewExtractor(http *fetcher.HTTPFetcher, ftp *fetcher.FTPFetcher, opts Options) *Extractor {
	if opts.DataGovBase == "" {
		opts.DataGovBase = DefaultDataGovBase
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &Extractor{
		http:     http,
		ftp:      ftp,
		baseURL:  opts.DataGovBase,
		pageSize: opts.PageSize,
		workDir:  opts.WorkDir,
		log:      zap.L().With(zap.String("component", "extractor")),
	}
}

// Extract pulls up to target records across sources, in source order. A
// failing source is logged and skipped; extraction fails only when every
// source fails.
func (e *Extractor) Extract(ctx context.Context, sources []Source, target int) ([]model.Record, error) {
	if len(sources) == 0 {
		return nil, eris.New("extract: no sources configured")
	}

	records := make([]model.Record, 0, target)
	failed := 0

	for _, src := range sources {
		if len(records) >= target {
			break
		}
		got, err := e.extractSource(ctx, src, target-len(records))
		if err != nil {
			failed++
			e.log.Warn("source extraction failed",
				zap.String("source", src.Name),
				zap.String("kind", src.Kind),
				zap.Error(err))
			continue
		}
		records = append(records, got...)
		e.log.Info("source extracted",
			zap.String("source", src.Name),
			zap.Int("records", len(got)))
	}

	if len(records) == 0 && failed == len(sources) {
		return nil, eris.Errorf("extract: all %d sources failed", failed)
	}
	return records, nil
}

func (e *Extractor) extractSource(ctx context.Context, src Source, target int) ([]model.Record, error) {
	switch src.Kind {
	case KindDataGov:
		return e.fetchDataGov(ctx, src, target)
	case KindCSV:
		header, rows, err := fetcher.ReadCSVFile(src.Path)
		if err != nil {
			return nil, err
		}
		return e.mapRows(src, header, rows, target), nil
	case KindXLSX:
		header, rows, err := fetcher.ReadXLSXFile(src.Path)
		if err != nil {
			return nil, err
		}
		return e.mapRows(src, header, rows, target), nil
	case KindFTP:
		local := filepath.Join(e.workDir, filepath.Base(src.URL))
		if _, err := e.ftp.DownloadToFile(ctx, src.URL, local); err != nil {
			return nil, err
		}
		defer os.Remove(local) //nolint:errcheck
		header, rows, err := fetcher.ReadCSVFile(local)
		if err != nil {
			return nil, err
		}
		return e.mapRows(src, header, rows, target), nil
	default:
		return nil, eris.Errorf("extract: unknown source kind %q", src.Kind)
	}
}

func (e *Extractor) mapRows(src Source, header []string, rows [][]string, target int) []model.Record {
	stamp := timestamp()
	if len(rows) > target {
		rows = rows[:target]
	}
	out := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, src.mapRow(header, row, stamp))
	}
	return out
}
