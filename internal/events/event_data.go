package events

import (
	"encoding/json"
)

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// HistoryRefreshedData contains data for HistoryRefreshed events
type HistoryRefreshedData struct {
	Source   string `json:"source"`
	Fetched  int    `json:"fetched"`
	Accepted int    `json:"accepted"`
	Added    int    `json:"added"`
	Total    int    `json:"total"`
	Latest   string `json:"latest,omitempty"`
}

// EventType returns the event type for HistoryRefreshedData
func (d *HistoryRefreshedData) EventType() EventType {
	return HistoryRefreshed
}

// StatisticsUpdatedData contains data for StatisticsUpdated events
type StatisticsUpdatedData struct {
	DrawCount int   `json:"drawCount"`
	Hot       []int `json:"hot"`
}

// EventType returns the event type for StatisticsUpdatedData
func (d *StatisticsUpdatedData) EventType() EventType {
	return StatisticsUpdated
}

// GenerationStartedData contains data for GenerationStarted events
type GenerationStartedData struct {
	RunID    string `json:"runId"`
	Strategy string `json:"strategy"`
	Count    int    `json:"count"`
}

// EventType returns the event type for GenerationStartedData
func (d *GenerationStartedData) EventType() EventType {
	return GenerationStarted
}

// GenerationProgressData contains data for GenerationProgress events
type GenerationProgressData struct {
	RunID          string  `json:"runId"`
	Progress       float64 `json:"progress"`
	BestConfidence float64 `json:"bestConfidence"`
}

// EventType returns the event type for GenerationProgressData
func (d *GenerationProgressData) EventType() EventType {
	return GenerationProgress
}

// GenerationCompletedData contains data for GenerationCompleted events
type GenerationCompletedData struct {
	RunID      string  `json:"runId"`
	Returned   int     `json:"returned"`
	Best       float64 `json:"best"`
	DurationMS int64   `json:"durationMs"`
	Error      string  `json:"error,omitempty"`
}

// EventType returns the event type for GenerationCompletedData
func (d *GenerationCompletedData) EventType() EventType {
	return GenerationCompleted
}

// BackupCompletedData contains data for BackupCompleted events
type BackupCompletedData struct {
	Key       string `json:"key"`
	SizeBytes int64  `json:"sizeBytes"`
}

// EventType returns the event type for BackupCompletedData
func (d *BackupCompletedData) EventType() EventType {
	return BackupCompleted
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// convertEventDataToMap converts typed EventData to the generic map carried by Event
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}
	return result
}

// Decode converts the event's data map back into typed data
func (e *Event) Decode(v EventData) error {
	jsonBytes, err := json.Marshal(e.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}
