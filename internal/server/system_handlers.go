package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/lotto/internal/database"
	"github.com/aristath/lotto/internal/modules/history"
)

// SystemHandlers serves process and storage status
type SystemHandlers struct {
	history   *history.Service
	db        *database.DB
	log       zerolog.Logger
	startedAt time.Time
}

// NewSystemHandlers creates system handlers. Any dependency may be nil.
func NewSystemHandlers(historyService *history.Service, db *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		history:   historyService,
		db:        db,
		log:       log.With().Str("component", "system_handlers").Logger(),
		startedAt: time.Now(),
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/system/status", h.HandleStatus)
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string          `json:"status"`
	UptimeSeconds int64           `json:"uptimeSeconds"`
	CPUPercent    float64         `json:"cpuPercent"`
	RAMPercent    float64         `json:"ramPercent"`
	Goroutines    int             `json:"goroutines"`
	History       *history.Status `json:"history,omitempty"`
	Database      *database.Stats `json:"database,omitempty"`
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	resp := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
	}

	if h.history != nil {
		status, err := h.history.Status(r.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read history status")
			resp.Status = "degraded"
		} else {
			resp.History = status
		}
	}

	if h.db != nil {
		stats, err := h.db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Msg("Failed to read database stats")
			resp.Status = "degraded"
		} else {
			resp.Database = stats
		}
	}

	writeJSON(w, http.StatusOK, resp, h.log)
}

// getSystemStats samples CPU over 100ms and reads memory instantly
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
