package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/metrics"
	"github.com/aristath/lotto/internal/modules/checker"
	"github.com/aristath/lotto/internal/modules/history"
	"github.com/aristath/lotto/internal/modules/montecarlo"
	"github.com/aristath/lotto/internal/modules/sampling"
)

// DefaultMinMatches is the history check threshold when a request sets none
const DefaultMinMatches = 3

// ToolHandlers serves the on-demand tools: Monte Carlo validation, draw
// checks and wheels
type ToolHandlers struct {
	history *history.Service
	metrics *metrics.Metrics
	seed    int64
	log     zerolog.Logger
}

// NewToolHandlers creates tool handlers. seed fixes Monte Carlo runs that
// carry no seed of their own; 0 seeds from the clock.
func NewToolHandlers(historyService *history.Service, m *metrics.Metrics, seed int64, log zerolog.Logger) *ToolHandlers {
	return &ToolHandlers{
		history: historyService,
		metrics: m,
		seed:    seed,
		log:     log.With().Str("component", "tool_handlers").Logger(),
	}
}

// RegisterRoutes registers tool routes
func (h *ToolHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/validate/monte-carlo", h.HandleMonteCarlo)
	r.Post("/check", h.HandleCheck)
	r.Post("/wheel", h.HandleWheel)
}

// MonteCarloRequest is the body of POST /api/validate/monte-carlo
type MonteCarloRequest struct {
	Numbers     []int  `json:"numbers"`
	Simulations int    `json:"simulations"`
	MinMatch    int    `json:"minMatch"`
	Seed        *int64 `json:"seed,omitempty"`
}

// HandleMonteCarlo handles POST /api/validate/monte-carlo
func (h *ToolHandlers) HandleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeFailure(w, errUnavailable, h.log)
		return
	}

	var req MonteCarloRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err, h.log)
		return
	}
	c, err := combinationFrom(req.Numbers)
	if err != nil {
		writeFailure(w, err, h.log)
		return
	}
	if req.Simulations == 0 {
		req.Simulations = montecarlo.DefaultSimulations
	}
	if req.MinMatch == 0 {
		req.MinMatch = montecarlo.DefaultMinMatch
	}

	seed := h.seed
	switch {
	case req.Seed != nil:
		seed = *req.Seed
	case seed == 0:
		seed = time.Now().UnixNano()
	}

	estimate, err := montecarlo.New(sampling.NewRNG(seed)).
		Estimate(r.Context(), c, h.history.Snapshot(), req.Simulations, req.MinMatch)
	h.metrics.ObserveMonteCarlo(err)
	if err != nil {
		writeFailure(w, err, h.log)
		return
	}

	writeJSON(w, http.StatusOK, estimate, h.log)
}

// CheckRequest is the body of POST /api/check. Without a draw the numbers
// are checked against the latest stored draw and the whole history.
type CheckRequest struct {
	Numbers    []int        `json:"numbers"`
	Draw       *domain.Draw `json:"draw,omitempty"`
	MinMatches int          `json:"minMatches"`
}

// CheckResponse is the body answered by POST /api/check
type CheckResponse struct {
	Result  *checker.Result  `json:"result,omitempty"`
	History []checker.Result `json:"history"`
}

// HandleCheck handles POST /api/check
func (h *ToolHandlers) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err, h.log)
		return
	}
	c, err := combinationFrom(req.Numbers)
	if err != nil {
		writeFailure(w, err, h.log)
		return
	}

	resp := CheckResponse{History: []checker.Result{}}

	if req.Draw != nil {
		result := checker.Check(c, *req.Draw)
		resp.Result = &result
		writeJSON(w, http.StatusOK, resp, h.log)
		return
	}

	if h.history == nil {
		writeFailure(w, errUnavailable, h.log)
		return
	}
	if req.MinMatches <= 0 {
		req.MinMatches = DefaultMinMatches
	}
	if req.MinMatches > domain.PickSize {
		writeFailure(w, domain.ConfigError("minMatches must be at most %d", domain.PickSize), h.log)
		return
	}

	if latest, ok := h.history.Latest(); ok {
		result := checker.Check(c, latest)
		resp.Result = &result
	}
	resp.History = checker.CheckHistory(c, h.history.Draws(), req.MinMatches)

	writeJSON(w, http.StatusOK, resp, h.log)
}

// WheelRequest is the body of POST /api/wheel
type WheelRequest struct {
	Type    checker.WheelType `json:"type"`
	Numbers []int             `json:"numbers"`
}

// HandleWheel handles POST /api/wheel
func (h *ToolHandlers) HandleWheel(w http.ResponseWriter, r *http.Request) {
	var req WheelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err, h.log)
		return
	}

	wheel, err := checker.Build(req.Type, req.Numbers)
	if err != nil {
		writeFailure(w, err, h.log)
		return
	}

	writeJSON(w, http.StatusOK, wheel, h.log)
}
