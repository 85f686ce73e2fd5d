package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/history"
)

// HistoryHandlers serves the cached history and its statistics
type HistoryHandlers struct {
	history *history.Service
	log     zerolog.Logger
}

// NewHistoryHandlers creates history handlers
func NewHistoryHandlers(historyService *history.Service, log zerolog.Logger) *HistoryHandlers {
	return &HistoryHandlers{
		history: historyService,
		log:     log.With().Str("component", "history_handlers").Logger(),
	}
}

// RegisterRoutes registers history routes
func (h *HistoryHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/history", h.HandleList)
	r.Post("/history/refresh", h.HandleRefresh)
	r.Get("/statistics", h.HandleStatistics)
}

// HistoryResponse is the body of GET /api/history
type HistoryResponse struct {
	Total int           `json:"total"`
	Draws []domain.Draw `json:"draws"`
}

// HandleList handles GET /api/history?limit=N, newest draws first
func (h *HistoryHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeFailure(w, errUnavailable, h.log)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", h.log)
			return
		}
		limit = n
	}

	draws := h.history.Draws()
	out := make([]domain.Draw, 0, len(draws))
	for i := len(draws) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, draws[i])
	}

	writeJSON(w, http.StatusOK, HistoryResponse{Total: len(draws), Draws: out}, h.log)
}

// HandleRefresh handles POST /api/history/refresh
func (h *HistoryHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeFailure(w, errUnavailable, h.log)
		return
	}

	result, err := h.history.Refresh(r.Context())
	if err != nil {
		if errors.Is(err, history.ErrNoProvider) {
			writeError(w, http.StatusServiceUnavailable, err.Error(), h.log)
			return
		}
		// The cached history is still served; the feed is the one failing
		h.log.Warn().Err(err).Msg("History refresh failed")
		writeError(w, http.StatusBadGateway, err.Error(), h.log)
		return
	}

	writeJSON(w, http.StatusOK, result, h.log)
}

// HandleStatistics handles GET /api/statistics
func (h *HistoryHandlers) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeFailure(w, errUnavailable, h.log)
		return
	}
	writeJSON(w, http.StatusOK, h.history.Snapshot(), h.log)
}
