// Package api exposes the forecast service over HTTP as JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/tempcast/internal/dataset"
	"github.com/lox/tempcast/internal/forecast"
	"github.com/lox/tempcast/internal/metrics"
	"github.com/lox/tempcast/internal/store"
	"github.com/lox/tempcast/internal/train"
)

const (
	defaultDays = 90
	maxDays     = 365

	// /api/forecast/models trains on a short horizon; the model metadata
	// is horizon-independent, so the cheap run suffices.
	modelsDays = 7
)

// Config carries the per-request defaults a Server applies to forecast
// runs.
type Config struct {
	Source        string
	Days          int
	Seed          int64
	MaxSamples    int
	LearningCurve bool
	RefitCurve    bool
}

type Server struct {
	cfg   Config
	store *store.Store
	port  string
}

// NewServer wires the handlers around a run configuration. The store
// may be nil, in which case run history is disabled and /api/runs
// reports service unavailable.
func NewServer(cfg Config, st *store.Store, port string) *Server {
	if cfg.Days <= 0 {
		cfg.Days = defaultDays
	}
	return &Server{cfg: cfg, store: st, port: port}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/forecast", s.handleForecast)
	mux.HandleFunc("/api/forecast/models", s.handleModels)
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return withCORS(mux)
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    ":" + s.port,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("api: listening on :%s", s.port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// withCORS allows any origin. The dashboard is served from a different
// host than the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// envelope is the wire format of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// forecastPayload is the data section of a successful /api/forecast
// response.
type forecastPayload struct {
	Models   any `json:"models"`
	Forecast any `json:"forecast"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days := s.cfg.Days
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxDays {
			metrics.ForecastRequests.WithLabelValues("bad_request").Inc()
			writeError(w, http.StatusBadRequest, "days must be an integer between 1 and 365")
			return
		}
		days = parsed
	}

	result, err := s.run(days, r.URL.Query().Get("start_date"))
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	s.recordRun(result, days)
	metrics.ForecastRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: forecastPayload{
			Models:   result.Models,
			Forecast: result.Forecast,
		},
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := s.run(modelsDays, "")
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	metrics.ForecastRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: result.Models})
}

func (s *Server) run(days int, startDate string) (*forecast.RunResult, error) {
	return forecast.Run(forecast.RunConfig{
		Source:        s.cfg.Source,
		Days:          days,
		StartDate:     startDate,
		Seed:          s.cfg.Seed,
		MaxSamples:    s.cfg.MaxSamples,
		LearningCurve: s.cfg.LearningCurve,
		RefitCurve:    s.cfg.RefitCurve,
	})
}

// writeRunError maps run failures onto status codes: data problems are
// the caller's input, everything else is ours.
func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	log.Printf("api: forecast run: %v", err)

	var dataErr *dataset.DataError
	var trainErr *train.TrainingError
	switch {
	case errors.As(err, &dataErr):
		metrics.ForecastRequests.WithLabelValues("data_error").Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &trainErr):
		metrics.ForecastRequests.WithLabelValues("train_error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		metrics.ForecastRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) recordRun(result *forecast.RunResult, days int) {
	if s.store == nil {
		return
	}
	_, err := s.store.InsertRun(store.RunRecord{
		CreatedAt:    time.Now().UTC(),
		Source:       s.cfg.Source,
		Days:         days,
		StartDate:    result.StartDate,
		Rows:         result.Rows,
		BestModelMax: result.Models.BestModelMax,
		BestModelMin: result.Models.BestModelMin,
		TestRMSEMax:  result.Models.MetricsMax.TestRMSE,
		TestRMSEMin:  result.Models.MetricsMin.TestRMSE,
		HottestDate:  result.Forecast.ExtremeDays.Hottest.Date,
		HottestTmax:  result.Forecast.ExtremeDays.Hottest.PredictedTmax,
		ColdestDate:  result.Forecast.ExtremeDays.Coldest.Date,
		ColdestTmin:  result.Forecast.ExtremeDays.Coldest.PredictedTmin,
		DurationMS:   result.Duration.Milliseconds(),
	})
	if err != nil {
		log.Printf("api: record run: %v", err)
	}
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run history is not enabled")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := s.store.RecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: runs})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("api: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
