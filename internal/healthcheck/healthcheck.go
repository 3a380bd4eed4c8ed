package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MyelinBots/wellness-sync/config"
	"github.com/MyelinBots/wellness-sync/internal/services/reconciler"
)

// OutcomeSource is satisfied by *reconciler.Driver.
type OutcomeSource interface {
	LastOutcome() (reconciler.Outcome, bool)
	Runs() int
}

type Status struct {
	Status  string              `json:"status"`
	App     string              `json:"app"`
	Version string              `json:"version"`
	Runs    int                 `json:"sync_runs"`
	Last    *reconciler.Outcome `json:"last_sync,omitempty"`
	Error   string              `json:"last_error,omitempty"`
}

// StartHealthcheck serves /healthz until ctx is done.
func StartHealthcheck(ctx context.Context, cfg config.AppConfig, src OutcomeSource, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthCheckHandler(cfg, src))

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HealthPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("healthcheck server error", "err", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	return srv
}

// HealthCheckHandler reports "ok" and the last sync outcome. A failed last
// sync is reported as "degraded" but still answers 200: the next daily run
// retries on its own.
func HealthCheckHandler(cfg config.AppConfig, src OutcomeSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		st := Status{Status: "ok", App: cfg.APPName, Version: cfg.Version}
		if src != nil {
			st.Runs = src.Runs()
			if last, ok := src.LastOutcome(); ok {
				st.Last = &last
				if last.Err != nil {
					st.Error = last.Err.Error()
				}
				if !last.Advanced() && last.Result != reconciler.SkippedNotDue {
					st.Status = "degraded"
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(st)
	}
}
