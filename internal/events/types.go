// Package events provides event management functionality.
package events

import (
	"time"
)

// EventType represents different event types
type EventType string

const (
	HistoryRefreshed    EventType = "HISTORY_REFRESHED"
	StatisticsUpdated   EventType = "STATISTICS_UPDATED"
	GenerationStarted   EventType = "GENERATION_STARTED"
	GenerationProgress  EventType = "GENERATION_PROGRESS"
	GenerationCompleted EventType = "GENERATION_COMPLETED"
	BackupCompleted     EventType = "BACKUP_COMPLETED"
	ErrorOccurred       EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, in declaration order
func AllTypes() []EventType {
	return []EventType{
		HistoryRefreshed,
		StatisticsUpdated,
		GenerationStarted,
		GenerationProgress,
		GenerationCompleted,
		BackupCompleted,
		ErrorOccurred,
	}
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
