package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/registry-etl/internal/extract"
	"github.com/sells-group/registry-etl/internal/pipeline"
	"github.com/sells-group/registry-etl/internal/store"
)

var servePort int

// buildMux wires the webhook routes. A nil pipeline makes POST /webhook/run
// accept and log; that keeps the routes testable without full wiring.
func buildMux(ctx context.Context, p *pipeline.Pipeline, st store.Store, sources []extract.Source) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /webhook/run", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Target int  `json:"target"`
			DryRun bool `json:"dry_run"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
		}

		// Run the pipeline asynchronously
		go func() {
			if p == nil {
				zap.L().Warn("webhook run skipped, pipeline not wired")
				return
			}
			result, err := p.Run(ctx, pipeline.Options{
				Sources: sources,
				Target:  req.Target,
				DryRun:  req.DryRun,
			})
			if err != nil {
				zap.L().Error("webhook run failed", zap.Error(err))
				return
			}
			zap.L().Info("webhook run complete",
				zap.String("run_id", result.RunID),
				zap.Int("loaded", result.Stats.CompaniesLoaded),
			)
		}()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted"})
	})

	mux.HandleFunc("GET /runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if st == nil {
			http.Error(w, `{"error":"store unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		run, err := st.GetRun(r.Context(), r.PathValue("id"))
		if err != nil {
			http.Error(w, `{"error":"run not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(run)
	})

	return mux
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start webhook server for pipeline runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

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

		var sources []extract.Source
		if cfg != nil {
			sources = cfg.Registry.Sources
		}
		mux := buildMux(ctx, p, st, sources)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown. The signal context is already canceled here, so
		// the drain deadline comes from a fresh context.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
