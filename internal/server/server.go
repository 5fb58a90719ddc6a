// Package server exposes a fitted delay model over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"flight-delay/internal/features"
	"flight-delay/internal/flights"
	"flight-delay/internal/model"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// RequestIDHeader carries the request id, echoed back when the caller sets it.
const RequestIDHeader = "X-Request-ID"

// MetricsInterface defines metrics methods needed by the server
type MetricsInterface interface {
	RequestObserve(endpoint string, code int, d time.Duration)
	PredictionsObserve(labels []int)
	ValidationFailureInc(reason string)
	ErrorsInc()
	ModelLoaded(trainedAt time.Time)
	DelayedRate() float64
}

// Config holds the HTTP listener settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
}

// Server serves predictions from one fitted model. The model is read-only and
// shared by all requests.
type Server struct {
	model   *model.Trained
	metrics MetricsInterface
	handler http.Handler
	server  *http.Server
}

// ModelInfo is returned by GET /model/info.
type ModelInfo struct {
	ModelID        string              `json:"model_id"`
	TrainedAt      time.Time           `json:"trained_at"`
	TrainingRows   int                 `json:"training_rows"`
	Engine         string              `json:"engine"`
	Trees          int                 `json:"trees"`
	MaxDepth       int                 `json:"max_depth"`
	DelayThreshold float64             `json:"delay_threshold"`
	Dimensions     []string            `json:"dimensions"`
	Vocabulary     features.Vocabulary `json:"vocabulary"`

	// DelayedRate is the share of flights served so far that were predicted delayed.
	DelayedRate float64 `json:"delayed_rate"`
}

func New(trained *model.Trained, cfg Config, metrics MetricsInterface) *Server {
	s := &Server{
		model:   trained,
		metrics: metrics,
	}

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.instrument("/health", s.handleHealth))
	mux.HandleFunc("/predict", s.instrument("/predict", s.handlePredict))
	mux.HandleFunc("/model/info", s.instrument("/model/info", s.handleModelInfo))
	mux.Handle("/metrics", metricsHandler)
	s.handler = mux

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	if metrics != nil {
		metrics.ModelLoaded(trained.Info().TrainedAt)
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, flights.HealthResponse{Status: "OK"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	records, err := decodePredictRequest(r.Body)
	if err == nil {
		err = s.model.Validate(records)
	}
	if err != nil {
		s.rejectRequest(w, r, err)
		return
	}

	labels, err := s.model.PredictRecords(records)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", w.Header().Get(RequestIDHeader)).
			Int("flights", len(records)).
			Msg("Prediction failed")
		if s.metrics != nil {
			s.metrics.ErrorsInc()
		}
		writeJSON(w, http.StatusInternalServerError, flights.ErrorResponse{Detail: "Internal Server Error"})
		return
	}

	if s.metrics != nil {
		s.metrics.PredictionsObserve(labels)
	}
	writeJSON(w, http.StatusOK, flights.PredictResponse{Predict: labels})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	info := s.model.Info()
	resp := ModelInfo{
		ModelID:        info.ModelID,
		TrainedAt:      info.TrainedAt,
		TrainingRows:   info.TrainingRows,
		Engine:         info.Engine,
		Trees:          s.model.Trees(),
		MaxDepth:       s.model.MaxDepth(),
		DelayThreshold: s.model.Threshold(),
		Dimensions:     features.Names(s.model.Dimensions()),
		Vocabulary:     s.model.Vocabulary(),
	}
	if s.metrics != nil {
		resp.DelayedRate = s.metrics.DelayedRate()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) rejectRequest(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		verr = &ValidationError{Reason: reasonVocabulary, Detail: err.Error(), Err: err}
	}

	log.Warn().
		Str("request_id", w.Header().Get(RequestIDHeader)).
		Str("reason", verr.Reason).
		Str("detail", verr.Detail).
		Msg("Rejected prediction request")
	if s.metrics != nil {
		s.metrics.ValidationFailureInc(verr.Reason)
	}
	writeJSON(w, http.StatusBadRequest, flights.ErrorResponse{Detail: verr.Detail})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument assigns the request id, then logs and measures the request.
func (s *Server) instrument(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		duration := time.Since(start)
		if s.metrics != nil {
			s.metrics.RequestObserve(endpoint, rec.status, duration)
		}
		log.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", duration).
			Msg("Request handled")
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, flights.ErrorResponse{Detail: "Method Not Allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
