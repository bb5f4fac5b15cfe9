package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/extract"
	"github.com/sells-group/registry-etl/internal/fetcher"
	"github.com/sells-group/registry-etl/internal/match"
)

var (
	resolveFile      string
	resolveThreshold float64
	resolveNoFuzzy   bool
)

// resolveCmd deduplicates a CSV export offline, without touching the store.
// The CSV header must use canonical field names (uen, company_name, website,
// industry, contact_email, contact_phone, number_of_employees, ...).
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Deduplicate a CSV of company records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		header, _, err := fetcher.ReadCSVFile(resolveFile)
		if err != nil {
			return eris.Wrap(err, "read input")
		}

		// Map every recognized header column to itself.
		columns := make(map[string]string, len(header))
		for _, col := range header {
			columns[col] = col
		}
		src := extract.Source{
			Name:    "csv-import",
			Kind:    extract.KindCSV,
			Path:    resolveFile,
			Columns: columns,
		}

		httpClient := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
		extractor := extract.NewExtractor(httpClient, fetcher.NewFTPFetcher(30*time.Second), extract.Options{})

		records, err := extractor.Extract(ctx, []extract.Source{src}, 1<<30)
		if err != nil {
			return eris.Wrap(err, "extract input")
		}

		var scorerOpts []match.ScorerOption
		if resolveNoFuzzy {
			scorerOpts = append(scorerOpts, match.WithoutFuzzy())
		}
		resolver := match.NewResolver(match.NewMatcher(match.NewScorer(scorerOpts...), resolveThreshold))

		canonical, report := resolver.Resolve(records)

		zap.L().Info("resolution complete",
			zap.Int("input", report.OriginalCount),
			zap.Int("canonical", report.MatchedCount),
			zap.Int("duplicates", report.DuplicatesFound),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Report  match.Report `json:"report"`
			Records any          `json:"records"`
		}{report, canonical})
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "input CSV path (required)")
	resolveCmd.Flags().Float64Var(&resolveThreshold, "threshold", match.DefaultThreshold, "fuzzy match threshold (0-100)")
	resolveCmd.Flags().BoolVar(&resolveNoFuzzy, "no-fuzzy", false, "disable fuzzy name matching")
	_ = resolveCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(resolveCmd)
}
