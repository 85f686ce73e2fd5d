package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/history"
	"github.com/aristath/lotto/internal/modules/optimizer"
	"github.com/aristath/lotto/internal/worker"
)

const (
	// DefaultCount is used when a generate request asks for no count
	DefaultCount = 5
	// MaxCount bounds the combinations one request may ask for
	MaxCount = 100

	wsWriteTimeout = 10 * time.Second
)

// GenerateRequest is the body of POST /api/generate and the first message of
// a /api/generate/ws session. The snapshot always comes from the server.
type GenerateRequest struct {
	Options          optimizer.Options       `json:"options"`
	Count            int                     `json:"count"`
	PredictionVector domain.PredictionVector `json:"predictionVector,omitempty"`
	Seed             *int64                  `json:"seed,omitempty"`
}

// GenerateHandlers runs optimizer searches through the worker
type GenerateHandlers struct {
	history *history.Service
	worker  *worker.Worker
	accept  websocket.AcceptOptions
	log     zerolog.Logger
}

// NewGenerateHandlers creates generate handlers. origins are the host
// patterns allowed to open a socket; "*" allows any origin.
func NewGenerateHandlers(historyService *history.Service, w *worker.Worker, origins []string, log zerolog.Logger) *GenerateHandlers {
	accept := websocket.AcceptOptions{}
	for _, o := range origins {
		if o == "*" {
			accept = websocket.AcceptOptions{InsecureSkipVerify: true}
			break
		}
		// Patterns match the origin host, not the full URL
		host := strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		accept.OriginPatterns = append(accept.OriginPatterns, host)
	}
	return &GenerateHandlers{
		history: historyService,
		worker:  w,
		accept:  accept,
		log:     log.With().Str("component", "generate_handlers").Logger(),
	}
}

// RegisterRoutes registers generate routes
func (h *GenerateHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/generate", h.HandleGenerate)
	r.Get("/generate/ws", h.HandleStream)
}

func (h *GenerateHandlers) payload(req GenerateRequest) (worker.GeneratePayload, error) {
	if h.history == nil || h.worker == nil {
		return worker.GeneratePayload{}, errUnavailable
	}
	if req.Count == 0 {
		req.Count = DefaultCount
	}
	if req.Count < 0 || req.Count > MaxCount {
		return worker.GeneratePayload{}, domain.ConfigError("count must be between 1 and %d, got %d", MaxCount, req.Count)
	}
	return worker.GeneratePayload{
		Snapshot:         h.history.Snapshot(),
		Options:          req.Options,
		Count:            req.Count,
		PredictionVector: req.PredictionVector,
		Seed:             req.Seed,
	}, nil
}

// HandleGenerate handles POST /api/generate and answers with the terminal result
func (h *GenerateHandlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeFailure(w, err, h.log)
		return
	}

	payload, err := h.payload(req)
	if err != nil {
		writeFailure(w, err, h.log)
		return
	}

	resp, err := h.worker.Generate(r.Context(), payload, nil)
	if err != nil {
		var runErr *worker.RunError
		if errors.As(err, &runErr) && runErr.IsConfiguration() {
			writeJSON(w, http.StatusBadRequest, resp, h.log)
			return
		}
		h.log.Error().Err(err).Msg("Generation failed")
		if resp != nil {
			writeJSON(w, http.StatusInternalServerError, resp, h.log)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error(), h.log)
		return
	}

	writeJSON(w, http.StatusOK, resp, h.log)
}

// HandleStream handles GET /api/generate/ws.
//
// The client sends one GenerateRequest; the server answers with the run's
// progress messages and one terminal result or error, then closes.
// Closing the socket early cancels the run.
func (h *GenerateHandlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &h.accept)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	var req GenerateRequest
	if err := wsjson.Read(r.Context(), conn, &req); err != nil {
		h.log.Debug().Err(err).Msg("Failed to read generate request")
		conn.Close(websocket.StatusUnsupportedData, "expected a generate request")
		return
	}

	// No more reads: CloseRead cancels ctx once the client goes away
	ctx := conn.CloseRead(r.Context())
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	payload, err := h.payload(req)
	if err != nil {
		h.writeMessage(ctx, conn, worker.Response{Type: worker.TypeError, Message: err.Error(), Kind: worker.ErrorKind(err)})
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	resp, err := h.worker.Generate(ctx, payload, func(p worker.Response) {
		if werr := h.writeMessage(ctx, conn, p); werr != nil {
			cancel()
		}
	})
	if resp == nil {
		resp = &worker.Response{Type: worker.TypeError, Message: err.Error(), Kind: worker.KindInternal}
	}
	if err := h.writeMessage(ctx, conn, *resp); err != nil {
		h.log.Debug().Err(err).Msg("Client left before the result")
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *GenerateHandlers) writeMessage(ctx context.Context, conn *websocket.Conn, resp worker.Response) error {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, resp)
}
