// Package api exposes the backtester over HTTP: run a backtest, browse
// stored history, and list the available strategies.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/quantback/internal/backtest/datasource"
	"github.com/rxtech-lab/quantback/internal/backtest/engine"
	"github.com/rxtech-lab/quantback/internal/logger"
	"github.com/rxtech-lab/quantback/internal/store"
	"github.com/rxtech-lab/quantback/internal/strategy"
	"github.com/rxtech-lab/quantback/internal/types"
	"github.com/rxtech-lab/quantback/pkg/errors"
)

// lookbackSlack over-fetches the warm-up window to survive gaps in the
// stored history.
const lookbackSlack = 2

// Server wires the HTTP routes to the store and the backtest engine.
type Server struct {
	store    *store.Store
	log      *logger.Logger
	router   *mux.Router
	validate *validator.Validate
}

// NewServer creates the HTTP server on top of an opened store.
func NewServer(s *store.Store, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	server := &Server{
		store:    s,
		log:      log,
		router:   mux.NewRouter(),
		validate: validator.New(),
	}

	server.routes()

	return server
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/backtest", s.handleBacktest).Methods(http.MethodPost)
	api.HandleFunc("/historical/{symbol}", s.handleHistorical).Methods(http.MethodGet)
	api.HandleFunc("/strategies", s.handleStrategies).Methods(http.MethodGet)
	api.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
}

// Router returns the configured handler, also used by tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("api server listening", zap.String("addr", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	return httpServer.ListenAndServe()
}

type backtestRequest struct {
	Symbol         string         `json:"symbol" validate:"required"`
	Strategy       string         `json:"strategy" validate:"required"`
	Params         map[string]any `json:"params"`
	InitialCapital float64        `json:"initial_capital"`
	Commission     float64        `json:"commission"`
	Interval       string         `json:"interval"`
	StartTime      time.Time      `json:"start_time" validate:"required"`
	EndTime        time.Time      `json:"end_time" validate:"required"`
}

type backtestResponse struct {
	RunID      string              `json:"run_id"`
	Symbol     string              `json:"symbol"`
	Strategy   string              `json:"strategy"`
	Result     *engine.Result      `json:"result"`
	Statistics map[string]float64  `json:"statistics"`
	PriceData  []types.MarketData  `json:"price_data"`
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, "invalid request body", err))
		return
	}

	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, "missing required fields", err))
		return
	}

	interval := types.Interval1h
	if req.Interval != "" {
		interval = types.Interval(req.Interval)
	}

	if !interval.IsValid() {
		s.writeError(w, errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %s", req.Interval))
		return
	}

	strat, err := strategy.New(req.Strategy, req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	config := engine.DefaultConfig()
	if req.InitialCapital > 0 {
		config.InitialCapital = req.InitialCapital
	}

	config.Commission = req.Commission
	config.StartTime = optional.Some(req.StartTime.UTC())
	config.EndTime = optional.Some(req.EndTime.UTC())

	if err := config.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	result, bars, err := s.runBacktest(r.Context(), req, interval, config, strat)
	if err != nil {
		s.writeError(w, err)
		return
	}

	runID, err := s.store.SaveResult(r.Context(), req.Symbol, req.Strategy, result)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, backtestResponse{
		RunID:      runID,
		Symbol:     req.Symbol,
		Strategy:   req.Strategy,
		Result:     result,
		Statistics: result.Statistics.Map(),
		PriceData:  priceWindow(bars, req.StartTime, req.EndTime),
	})
}

// runBacktest loads the stored bars with a warm-up buffer in front of the
// requested window, then drives one engine run.
func (s *Server) runBacktest(ctx context.Context, req backtestRequest, interval types.Interval, config engine.Config, strat strategy.Strategy) (*engine.Result, []types.MarketData, error) {
	buffer := interval.Duration() * time.Duration(strat.LookbackPeriods()*lookbackSlack)

	bars, err := s.store.GetKlines(ctx, req.Symbol, req.StartTime.Add(-buffer), req.EndTime)
	if err != nil {
		return nil, nil, err
	}

	feed, err := datasource.NewFeed(bars, s.log)
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.NewEngine(config, strat, s.log)
	if err != nil {
		return nil, nil, err
	}

	result, err := eng.Run(feed)
	if err != nil {
		return nil, nil, err
	}

	return result, bars, nil
}

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	end := time.Now().UTC()
	start := end.Add(-30 * 24 * time.Hour)

	var err error

	if raw := r.URL.Query().Get("start"); raw != "" {
		start, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, "invalid start parameter", err))
			return
		}
	}

	if raw := r.URL.Query().Get("end"); raw != "" {
		end, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, "invalid end parameter", err))
			return
		}
	}

	if !start.Before(end) {
		s.writeError(w, errors.New(errors.ErrCodeInvalidTimeRange, "start must be before end"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer"))
			return
		}
	}

	bars, err := s.store.GetKlines(r.Context(), symbol, start, end)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// limit keeps the newest bars of the range
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	if len(bars) == 0 {
		s.writeError(w, errors.Newf(errors.ErrCodeDataNotFound, "no data for symbol %s", symbol))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"bars":   bars,
	})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"strategies": strategy.List(),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	if runs == nil {
		runs = []store.RunRecord{}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
	})
}

// priceWindow trims the loaded bars (which include the warm-up buffer) to the
// requested window for the response payload.
func priceWindow(bars []types.MarketData, start, end time.Time) []types.MarketData {
	window := make([]types.MarketData, 0, len(bars))

	for _, bar := range bars {
		if bar.Time.Before(start) || !bar.Time.Before(end) {
			continue
		}

		window = append(window, bar)
	}

	return window
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfiguration, errors.ErrCodeInvalidParameter,
		errors.ErrCodeInvalidPeriod, errors.ErrCodeInvalidTimeRange, errors.ErrCodeInvalidInterval,
		errors.ErrCodeUnknownStrategy, errors.ErrCodeBacktestConfigError:
		status = http.StatusBadRequest
	case errors.ErrCodeDataNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeEmptyDataset, errors.ErrCodeNoDataProcessed:
		status = http.StatusUnprocessableEntity
	}

	s.log.Warn("request failed", zap.Int("status", status), zap.Error(err))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
