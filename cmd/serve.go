package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contracts-explorer/internal/parquet"
	"github.com/sells-group/contracts-explorer/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard query API",
	Long: `Serve the dashboard's query interface over HTTP.

If the store is empty and contracts_sample.parquet exists in the working
directory, it is loaded on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "serve"))

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		// First run against a fresh store: load the sample if present.
		stats, err := st.Stats(ctx)
		if err != nil {
			return eris.Wrap(err, "serve: stats")
		}
		if stats.Rows == 0 {
			sample := samplePath(cfg.Reduce.OutDir)
			if _, statErr := os.Stat(sample); statErr == nil {
				n, err := loadSample(ctx, st, sample)
				if err != nil {
					return eris.Wrap(err, "serve: initial load")
				}
				log.Info("loaded sample on startup",
					zap.String("path", sample), zap.Int64("rows", n))
			}
		}

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/api/contracts", handleContracts(st))
		r.Get("/api/summary", handleSummary(st))
		r.Get("/api/top-recipients", handleTopRecipients(st))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("dashboard API listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return eris.Wrap(err, "serve")
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// samplePath locates the parquet sample inside the reduction output
// directory the artifacts were written to.
func samplePath(outDir string) string {
	if outDir == "" {
		outDir = "."
	}
	return filepath.Join(outDir, parquet.SampleFile)
}

// parseFilter builds a store.Filter from dashboard query parameters.
// Unset parameters leave their clause disabled; the store applies the
// default end-date floor.
func parseFilter(r *http.Request) (store.Filter, error) {
	var f store.Filter
	q := r.URL.Query()

	if v := q.Get("end_after"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("bad end_after %q", v)
		}
		f.EndAfter = t.UTC()
	}
	if v := q.Get("end_before"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("bad end_before %q", v)
		}
		f.EndBefore = t.UTC()
	}
	f.Recipient = q.Get("recipient")
	f.Agency = q.Get("agency")
	f.Description = q.Get("description")

	if v := q.Get("min_value"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("bad min_value %q", v)
		}
		f.MinValue = &x
	}
	if v := q.Get("max_value"); v != "" {
		x, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, fmt.Errorf("bad max_value %q", v)
		}
		f.MaxValue = &x
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("bad limit %q", v)
		}
		f.Limit = n
	}

	return f, nil
}

func handleContracts(st store.ContractStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		rows, err := st.Query(r.Context(), f)
		if err != nil {
			serverError(w, "query contracts", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"count": len(rows), "contracts": rows})
	}
}

func handleSummary(st store.ContractStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		sum, err := st.Summary(r.Context(), f)
		if err != nil {
			serverError(w, "summary", err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

func handleTopRecipients(st store.ContractStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		top, err := st.TopRecipients(r.Context(), f, 10)
		if err != nil {
			serverError(w, "top recipients", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"recipients": top})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func serverError(w http.ResponseWriter, msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}
