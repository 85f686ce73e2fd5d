package events

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRefreshedData(t *testing.T) {
	data := HistoryRefreshedData{Source: "http", Fetched: 10, Accepted: 9, Added: 2, Total: 120, Latest: "2024-01-17"}

	jsonData, err := json.Marshal(data)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"latest":"2024-01-17"`)

	var unmarshaled HistoryRefreshedData
	require.NoError(t, json.Unmarshal(jsonData, &unmarshaled))
	assert.Equal(t, data, unmarshaled)
	assert.Equal(t, HistoryRefreshed, unmarshaled.EventType())
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		data     EventData
		expected EventType
	}{
		{&HistoryRefreshedData{}, HistoryRefreshed},
		{&StatisticsUpdatedData{}, StatisticsUpdated},
		{&GenerationStartedData{}, GenerationStarted},
		{&GenerationProgressData{}, GenerationProgress},
		{&GenerationCompletedData{}, GenerationCompleted},
		{&BackupCompletedData{}, BackupCompleted},
		{&ErrorEventData{}, ErrorOccurred},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.data.EventType())
			assert.Contains(t, AllTypes(), tt.expected)
		})
	}
}

func TestBus_SubscribeAndUnsubscribe(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	var mu sync.Mutex
	var received []*Event

	unsubscribe := bus.Subscribe(GenerationProgress, func(e *Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	})
	other := bus.Subscribe(GenerationProgress, func(*Event) {})
	assert.Equal(t, 2, bus.SubscriberCount(GenerationProgress))

	bus.Emit(GenerationProgress, "worker", map[string]interface{}{"progress": 50.0})
	bus.Emit(HistoryRefreshed, "history", nil)

	require.Len(t, received, 1)
	assert.Equal(t, GenerationProgress, received[0].Type)
	assert.Equal(t, "worker", received[0].Module)
	assert.Equal(t, 50.0, received[0].Data["progress"])

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 1, bus.SubscriberCount(GenerationProgress))

	bus.Emit(GenerationProgress, "worker", nil)
	assert.Len(t, received, 1)

	other()
	assert.Zero(t, bus.SubscriberCount(GenerationProgress))
}

func TestManager_EmitTyped(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(GenerationCompleted, func(e *Event) { got = e })

	manager.EmitTyped("worker", &GenerationCompletedData{RunID: "run-1", Returned: 5, Best: 72.5})

	require.NotNil(t, got)
	var data GenerationCompletedData
	require.NoError(t, got.Decode(&data))
	assert.Equal(t, "run-1", data.RunID)
	assert.Equal(t, 5, data.Returned)
	assert.Equal(t, 72.5, data.Best)
}

func TestManager_EmitError(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	manager := NewManager(bus, zerolog.Nop())

	var got *Event
	bus.Subscribe(ErrorOccurred, func(e *Event) { got = e })

	manager.EmitError("history", errors.New("feed down"), map[string]interface{}{"source": "http"})

	require.NotNil(t, got)
	assert.Equal(t, "feed down", got.Data["error"])
	assert.Equal(t, "history", got.Module)
}

func TestManager_NilIsNoop(t *testing.T) {
	var manager *Manager
	assert.NotPanics(t, func() {
		manager.EmitTyped("worker", &GenerationStartedData{})
	})
}
