package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/classify"
	"github.com/sells-group/registry-etl/internal/enrich"
	"github.com/sells-group/registry-etl/internal/extract"
	"github.com/sells-group/registry-etl/internal/fetcher"
	"github.com/sells-group/registry-etl/internal/match"
	"github.com/sells-group/registry-etl/internal/pipeline"
	"github.com/sells-group/registry-etl/internal/store"
)

var (
	runTarget   int
	runDryRun   bool
	runNoEnrich bool
	runClassify bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full ETL pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p, err := buildPipeline(st)
		if err != nil {
			return err
		}

		target := runTarget
		if target <= 0 {
			target = cfg.Registry.TargetCompanies
		}

		result, err := p.Run(ctx, pipeline.Options{
			Sources: cfg.Registry.Sources,
			Target:  target,
			DryRun:  runDryRun,
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("run_id", result.RunID),
			zap.Int("loaded", result.Stats.CompaniesLoaded),
		)

		fmt.Print(result.Report())

		if runDryRun && len(result.Records) > 0 {
			sample := result.Records
			if len(sample) > 5 {
				sample = sample[:5]
			}
			fmt.Println("\nSample records:")
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(sample); err != nil {
				return err
			}
		}
		return nil
	},
}

// buildPipeline assembles the pipeline collaborators from config. Enrichment
// and classification are optional phases; nil collaborators skip them.
func buildPipeline(st store.Store) (*pipeline.Pipeline, error) {
	httpClient := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:         cfg.Enrich.UserAgent,
		RequestsPerSecond: cfg.Enrich.RequestsPerSecond,
	})
	ftpClient := fetcher.NewFTPFetcher(30 * time.Second)

	extractor := extract.NewExtractor(httpClient, ftpClient, extract.Options{
		DataGovBase: cfg.Registry.DataGovBase,
		PageSize:    cfg.Registry.PageSize,
		WorkDir:     cfg.Registry.WorkDir,
	})

	var enricher pipeline.Enricher
	if cfg.Enrich.Enabled && !runNoEnrich {
		enricher = enrich.NewCoordinator(
			enrich.NewDomainGuesser(httpClient),
			enrich.NewPageExtractor(httpClient),
			enrich.Options{
				Workers:    cfg.Enrich.Workers,
				BatchSize:  cfg.Enrich.BatchSize,
				MaxRecords: cfg.Enrich.MaxRecords,
				Timeout:    time.Duration(cfg.Enrich.TimeoutSecs) * time.Second,
				Delay:      time.Duration(cfg.Enrich.DelayMillis) * time.Millisecond,
			},
		)
	}

	var scorerOpts []match.ScorerOption
	if cfg.Match.DisableFuzzy {
		scorerOpts = append(scorerOpts, match.WithoutFuzzy())
	}
	resolver := match.NewResolver(match.NewMatcher(match.NewScorer(scorerOpts...), cfg.Match.Threshold))

	var labeler pipeline.Labeler
	if cfg.Classify.Enabled || runClassify {
		rules, err := classify.NewRuleClassifier()
		if err != nil {
			return nil, eris.Wrap(err, "load classification rules")
		}
		var llm classify.Completer
		if cfg.Classify.Key != "" {
			llm = classify.NewAnthropicCompleter(cfg.Classify.Key, cfg.Classify.Model, cfg.Classify.MaxTokens)
		}
		labeler = classify.NewClassifier(llm, rules)
	}

	return pipeline.New(st, extractor, enricher, resolver, labeler), nil
}

func init() {
	runCmd.Flags().IntVar(&runTarget, "target", 0, "extraction target (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "run without writing to the store")
	runCmd.Flags().BoolVar(&runNoEnrich, "no-enrich", false, "skip the website enrichment phase")
	runCmd.Flags().BoolVar(&runClassify, "classify", false, "force the classification phase on")
	rootCmd.AddCommand(runCmd)
}
