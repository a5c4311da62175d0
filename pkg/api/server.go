package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/config"
	"github.com/richard-senior/matchodds/pkg/ensemble"
	"github.com/richard-senior/matchodds/pkg/metrics"
)

// Server exposes the ensemble over HTTP
type Server struct {
	config     *config.Config
	ensemble   *ensemble.Ensemble
	metrics    *metrics.Metrics
	httpServer *http.Server
}

func NewServer(cfg *config.Config, e *ensemble.Ensemble, m *metrics.Metrics) *Server {
	return &Server{
		config:   cfg,
		ensemble: e,
		metrics:  m,
	}
}

// Handler builds the routed, CORS wrapped handler
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/predictions/{home}/{away}", s.handlePrediction).Methods("GET")

	if reg := s.metrics.Registry(); reg != nil {
		router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(router)
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.HTTP.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Info("HTTP API listening on", s.config.HTTP.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Stop() {
	if s.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"time":       time.Now().Unix(),
		"algorithms": s.ensemble.Algorithms(),
	})
}

// handlePrediction serves GET /api/predictions/{home}/{away}[?algorithms=a,b]
func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	homeID, err := strconv.ParseInt(vars["home"], 10, 64)
	if err != nil || homeID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid home team id")
		return
	}
	awayID, err := strconv.ParseInt(vars["away"], 10, 64)
	if err != nil || awayID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid away team id")
		return
	}

	e := s.ensemble
	if list := r.URL.Query().Get("algorithms"); list != "" {
		e, err = e.Only(strings.Split(list, ",")...)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx := r.Context()
	if timeout := s.config.HTTP.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := e.PredictFixture(ctx, homeID, awayID)
	var unknown *ensemble.UnknownTeamError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.As(err, &unknown):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ensemble.ErrSameTeam):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		logger.Error("Prediction failed", homeID, awayID, err)
		writeError(w, http.StatusInternalServerError, "prediction failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
