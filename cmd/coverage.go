package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/registry-etl/internal/store"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Show field coverage for loaded companies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		report, err := st.Coverage(ctx)
		if err != nil {
			return eris.Wrap(err, "coverage")
		}

		formatCoverage(os.Stdout, report)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}

// formatCoverage writes a tabular coverage report to w.
func formatCoverage(out io.Writer, r *store.CoverageReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total companies:\t%d\n", r.TotalCompanies)
	_, _ = fmt.Fprintf(w, "Website:\t%.1f%%\n", r.WebsitePct)
	_, _ = fmt.Fprintf(w, "LinkedIn:\t%.1f%%\n", r.LinkedinPct)
	_, _ = fmt.Fprintf(w, "Contact email:\t%.1f%%\n", r.EmailPct)
	_, _ = fmt.Fprintf(w, "Industry:\t%.1f%%\n", r.IndustryPct)
	_, _ = fmt.Fprintf(w, "Avg quality score:\t%.1f\n", r.AvgQualityScore)
	if len(r.TopIndustries) > 0 {
		_, _ = fmt.Fprintln(w, "Top industries:")
		for _, ic := range r.TopIndustries {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", ic.Industry, ic.Count)
		}
	}
	_ = w.Flush()
}
