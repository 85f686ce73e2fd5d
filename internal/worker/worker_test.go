package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/events"
	"github.com/aristath/lotto/internal/modules/optimizer"
	"github.com/aristath/lotto/internal/modules/statistics"
	testutil "github.com/aristath/lotto/internal/testing"
)

func smallConfig() Config {
	cfg := optimizer.DefaultConfig()
	cfg.PopulationSize = 30
	cfg.Generations = 6
	cfg.Workers = 2
	return Config{Optimizer: cfg, Timeout: 30 * time.Second}
}

func payload(strategy string, seed int64) GeneratePayload {
	return GeneratePayload{
		Snapshot: statistics.Analyze(testutil.NewDrawFixtures()),
		Options:  optimizer.Options{Strategy: strategy, FavorHot: true},
		Count:    3,
		Seed:     &seed,
	}
}

type eventLog struct {
	mu    sync.Mutex
	types []events.EventType
}

func (l *eventLog) handle(e *events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.types = append(l.types, e.Type)
}

func (l *eventLog) count(t events.EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, et := range l.types {
		if et == t {
			n++
		}
	}
	return n
}

func newWorker(t *testing.T) (*Worker, *eventLog) {
	t.Helper()
	bus := events.NewBus(zerolog.Nop())
	log := &eventLog{}
	for _, et := range events.AllTypes() {
		bus.Subscribe(et, log.handle)
	}
	return New(smallConfig(), events.NewManager(bus, zerolog.Nop()), nil, zerolog.Nop()), log
}

func TestWorker_Generate(t *testing.T) {
	w, evts := newWorker(t)

	var progress []Response
	resp, err := w.Generate(context.Background(), payload("balanced", 7), func(r Response) {
		progress = append(progress, r)
	})
	require.NoError(t, err)

	assert.Equal(t, TypeResult, resp.Type)
	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, int64(7), resp.Seed)
	assert.Equal(t, 6, resp.Generations)
	require.NotEmpty(t, resp.Combinations)
	assert.LessOrEqual(t, len(resp.Combinations), 3)
	for i := 1; i < len(resp.Combinations); i++ {
		assert.GreaterOrEqual(t, resp.Combinations[i-1].Confidence, resp.Combinations[i].Confidence)
	}

	require.Len(t, progress, 6)
	for i, p := range progress {
		assert.Equal(t, TypeProgress, p.Type)
		assert.Equal(t, resp.RunID, p.RunID)
		assert.Equal(t, i+1, p.Generation)
	}
	assert.InDelta(t, 100.0, progress[5].Progress, 1e-9)

	assert.Equal(t, 1, evts.count(events.GenerationStarted))
	assert.Equal(t, 6, evts.count(events.GenerationProgress))
	assert.Equal(t, 1, evts.count(events.GenerationCompleted))
}

func TestWorker_SameSeedSameResult(t *testing.T) {
	w, _ := newWorker(t)

	first, err := w.Generate(context.Background(), payload("aggressive", 99), nil)
	require.NoError(t, err)
	second, err := w.Generate(context.Background(), payload("aggressive", 99), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Combinations, second.Combinations)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestWorker_ConfigurationError(t *testing.T) {
	w, evts := newWorker(t)

	resp, err := w.Generate(context.Background(), payload("lucky", 1), nil)
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.True(t, runErr.IsConfiguration())
	assert.Equal(t, TypeError, resp.Type)
	assert.Contains(t, resp.Message, "lucky")
	assert.Zero(t, evts.count(events.GenerationProgress))
}

func TestWorker_Cancelled(t *testing.T) {
	w, _ := newWorker(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := w.Generate(ctx, payload("balanced", 3), nil)
	require.Error(t, err)
	assert.Equal(t, KindCanceled, resp.Kind)
}

func TestWorker_StartRejectsBadFrames(t *testing.T) {
	w, _ := newWorker(t)

	tests := []struct {
		name  string
		frame func(t *testing.T) []byte
		want  string
	}{
		{"garbage", func(t *testing.T) []byte { return []byte{0xc1, 0x00} }, "decode"},
		{"wrong type", func(t *testing.T) []byte {
			frame, err := Encode(Request{Type: "analyze"})
			require.NoError(t, err)
			return frame
		}, "unsupported message type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runID, out := w.Start(context.Background(), tt.frame(t))
			assert.NotEmpty(t, runID)

			var frames [][]byte
			for f := range out {
				frames = append(frames, f)
			}
			require.Len(t, frames, 1)

			var resp Response
			require.NoError(t, Decode(frames[0], &resp))
			assert.Equal(t, TypeError, resp.Type)
			assert.Contains(t, resp.Message, tt.want)
		})
	}
}

func TestWorker_StreamEndsWithOneTerminal(t *testing.T) {
	w, _ := newWorker(t)

	frame, err := Encode(NewGenerateRequest(payload("conservative", 5)))
	require.NoError(t, err)

	_, out := w.Start(context.Background(), frame)
	var types []string
	for f := range out {
		var resp Response
		require.NoError(t, Decode(f, &resp))
		types = append(types, resp.Type)
	}

	require.NotEmpty(t, types)
	assert.Equal(t, TypeResult, types[len(types)-1])
	for _, typ := range types[:len(types)-1] {
		assert.Equal(t, TypeProgress, typ)
	}
}

func TestWorker_SlowReaderGetsEveryProgressFrame(t *testing.T) {
	w, _ := newWorker(t)
	w.cfg.Optimizer.Generations = 80

	frame, err := Encode(NewGenerateRequest(payload("balanced", 9)))
	require.NoError(t, err)

	_, out := w.Start(context.Background(), frame)
	// Let the run fill the buffer before anyone reads
	time.Sleep(300 * time.Millisecond)

	progress, terminal := 0, ""
	for f := range out {
		var resp Response
		require.NoError(t, Decode(f, &resp))
		if resp.Terminal() {
			terminal = resp.Type
			continue
		}
		progress++
	}

	assert.Equal(t, 80, progress)
	assert.Equal(t, TypeResult, terminal)
}

func TestCodec_UsesJSONNames(t *testing.T) {
	frame, err := Encode(Response{Type: TypeProgress, RunID: "abc", Progress: 12.5})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, msgpack.Unmarshal(frame, &raw))
	assert.Equal(t, "progress", raw["type"])
	assert.Equal(t, "abc", raw["runId"])
	assert.Equal(t, 12.5, raw["progress"])
	assert.NotContains(t, raw, "combinations")
}

func TestCodec_RoundTripsSnapshot(t *testing.T) {
	in := payload("balanced", 1)
	frame, err := Encode(NewGenerateRequest(in))
	require.NoError(t, err)

	var out Request
	require.NoError(t, Decode(frame, &out))
	assert.Equal(t, TypeGenerate, out.Type)
	assert.Equal(t, in.Snapshot.Frequency, out.Payload.Snapshot.Frequency)
	assert.Equal(t, in.Snapshot.Affinity, out.Payload.Snapshot.Affinity)
	assert.NotSame(t, in.Snapshot, out.Payload.Snapshot)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, KindConfiguration, ErrorKind(domain.ConfigError("bad")))
	assert.Equal(t, KindScoring, ErrorKind(domain.ScoringError("bad")))
	assert.Equal(t, KindCanceled, ErrorKind(context.DeadlineExceeded))
	assert.Equal(t, KindInternal, ErrorKind(errors.New("other")))
}
