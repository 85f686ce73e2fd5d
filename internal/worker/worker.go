package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/events"
	"github.com/aristath/lotto/internal/metrics"
	"github.com/aristath/lotto/internal/modules/optimizer"
	"github.com/aristath/lotto/internal/modules/sampling"
	"github.com/aristath/lotto/internal/modules/scoring"
)

const (
	moduleName = "worker"
	// frameBuffer is the per-run output buffer
	frameBuffer = 32
)

// Config tunes the worker
type Config struct {
	Optimizer optimizer.Config
	// Seed is used when a request carries none; 0 seeds from the clock
	Seed    int64
	Timeout time.Duration
	// MaxConcurrent bounds simultaneous runs
	MaxConcurrent int
}

// Worker executes generate requests, one isolated optimizer per run
type Worker struct {
	cfg     Config
	slots   chan struct{}
	events  *events.Manager
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New creates a worker
func New(cfg Config, eventManager *events.Manager, m *metrics.Metrics, log zerolog.Logger) *Worker {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Worker{
		cfg:     cfg,
		slots:   make(chan struct{}, cfg.MaxConcurrent),
		events:  eventManager,
		metrics: m,
		log:     log.With().Str("component", "worker").Logger(),
	}
}

// Start decodes an encoded request and runs it on its own goroutine.
// The returned channel yields encoded responses and is closed after the
// terminal one. Callers must drain it: a lagging reader slows the run down
// until the run's timeout expires. Cancelling ctx ends the run with an error message.
func (w *Worker) Start(ctx context.Context, frame []byte) (string, <-chan []byte) {
	runID := uuid.New().String()
	out := make(chan []byte, frameBuffer)

	var req Request
	if err := Decode(frame, &req); err != nil {
		w.finish(out, errorResponse(runID, err))
		return runID, out
	}
	if req.Type != TypeGenerate {
		w.finish(out, errorResponse(runID, fmt.Errorf("unsupported message type %q", req.Type)))
		return runID, out
	}

	go func() {
		res, seed, err := w.run(ctx, runID, req.Payload, func(runCtx context.Context, r Response) {
			frame, err := Encode(r)
			if err != nil {
				w.log.Error().Err(err).Str("run_id", runID).Msg("Failed to encode progress message")
				return
			}
			select {
			case out <- frame:
			case <-runCtx.Done():
			}
		})
		if err != nil {
			w.finish(out, errorResponse(runID, err))
			return
		}
		w.finish(out, resultResponse(runID, seed, res))
	}()

	return runID, out
}

// Generate runs a request synchronously. onProgress may be nil.
// The payload is copied through the codec so the run never shares memory with the caller.
func (w *Worker) Generate(ctx context.Context, payload GeneratePayload, onProgress func(Response)) (*Response, error) {
	frame, err := Encode(NewGenerateRequest(payload))
	if err != nil {
		return nil, err
	}

	_, out := w.Start(ctx, frame)
	for frame := range out {
		var resp Response
		if err := Decode(frame, &resp); err != nil {
			return nil, err
		}
		if !resp.Terminal() {
			if onProgress != nil {
				onProgress(resp)
			}
			continue
		}
		if resp.Type == TypeError {
			return &resp, &RunError{Kind: resp.Kind, Message: resp.Message}
		}
		return &resp, nil
	}
	return nil, fmt.Errorf("worker closed without a result")
}

func (w *Worker) finish(out chan<- []byte, resp Response) {
	frame, err := Encode(resp)
	if err != nil {
		w.log.Error().Err(err).Str("run_id", resp.RunID).Msg("Failed to encode terminal message")
		frame, _ = Encode(Response{Type: TypeError, RunID: resp.RunID, Message: err.Error(), Kind: KindInternal})
	}
	out <- frame
	close(out)
}

func (w *Worker) run(ctx context.Context, runID string, payload GeneratePayload, emit func(context.Context, Response)) (*optimizer.Result, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	select {
	case w.slots <- struct{}{}:
		defer func() { <-w.slots }()
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("waiting for a free worker slot: %w", ctx.Err())
	}

	seed := w.seed(payload.Seed)
	strategy := payload.Options.Strategy
	label := strategy
	if _, err := scoring.ParseStrategy(strategy); err != nil {
		label = "invalid"
	}
	log := w.log.With().Str("run_id", runID).Str("strategy", strategy).Int64("seed", seed).Logger()

	w.events.EmitTyped(moduleName, &events.GenerationStartedData{RunID: runID, Strategy: strategy, Count: payload.Count})
	log.Info().Int("count", payload.Count).Msg("Generation started")

	opt := optimizer.New(w.cfg.Optimizer, sampling.NewRNG(seed), log)
	start := time.Now()

	res, err := opt.Run(ctx, optimizer.Request{
		Snapshot:   payload.Snapshot,
		Options:    payload.Options,
		Count:      payload.Count,
		Prediction: payload.PredictionVector,
	}, func(p optimizer.Progress) {
		w.events.EmitTyped(moduleName, &events.GenerationProgressData{
			RunID:          runID,
			Progress:       p.Percent,
			BestConfidence: p.BestConfidence,
		})
		emit(ctx, progressResponse(runID, p))
	})

	elapsed := time.Since(start)
	completed := &events.GenerationCompletedData{RunID: runID, DurationMS: elapsed.Milliseconds()}
	best := 0.0
	if err != nil {
		completed.Error = err.Error()
	} else {
		completed.Returned = len(res.Combinations)
		if len(res.Combinations) > 0 {
			best = res.Combinations[0].Confidence
		}
		completed.Best = best
	}
	w.metrics.ObserveGeneration(label, elapsed, best, err)
	w.events.EmitTyped(moduleName, completed)

	if err != nil {
		log.Warn().Err(err).Str("kind", ErrorKind(err)).Msg("Generation failed")
		return nil, seed, err
	}
	return res, seed, nil
}

func (w *Worker) seed(requested *int64) int64 {
	switch {
	case requested != nil:
		return *requested
	case w.cfg.Seed != 0:
		return w.cfg.Seed
	default:
		return time.Now().UnixNano()
	}
}

// RunError is a failure reported by a run through the message protocol
type RunError struct {
	Kind    string
	Message string
}

func (e *RunError) Error() string {
	return e.Message
}

// IsConfiguration reports whether the run was rejected before generating
func (e *RunError) IsConfiguration() bool {
	return e.Kind == KindConfiguration
}
