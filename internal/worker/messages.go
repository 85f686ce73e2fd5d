// Package worker runs optimizer searches in isolation behind a message protocol.
//
// A run is started with one "generate" request and answers with zero or more
// "progress" messages followed by exactly one "result" or "error".
package worker

import (
	"context"
	"errors"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/optimizer"
	"github.com/aristath/lotto/internal/modules/statistics"
)

// Message types
const (
	TypeGenerate = "generate"
	TypeProgress = "progress"
	TypeResult   = "result"
	TypeError    = "error"
)

// Error kinds carried by error messages
const (
	KindConfiguration = "configuration"
	KindScoring       = "scoring"
	KindCanceled      = "canceled"
	KindInternal      = "internal"
)

// GeneratePayload is the body of a generate request
type GeneratePayload struct {
	Snapshot         *statistics.Snapshot    `json:"snapshot"`
	Options          optimizer.Options       `json:"options"`
	Count            int                     `json:"count"`
	PredictionVector domain.PredictionVector `json:"predictionVector,omitempty"`
	Seed             *int64                  `json:"seed,omitempty"`
}

// Request is an inbound message
type Request struct {
	Type    string          `json:"type"`
	Payload GeneratePayload `json:"payload"`
}

// NewGenerateRequest wraps a payload in a generate message
func NewGenerateRequest(payload GeneratePayload) Request {
	return Request{Type: TypeGenerate, Payload: payload}
}

// Response is an outbound message. Which fields are set depends on Type.
type Response struct {
	Type  string `json:"type"`
	RunID string `json:"runId,omitempty"`

	// progress
	Progress       float64 `json:"progress,omitempty"`
	Generation     int     `json:"generation,omitempty"`
	BestConfidence float64 `json:"bestConfidence,omitempty"`

	// result
	Combinations []domain.Candidate `json:"combinations,omitempty"`
	Generations  int                `json:"generations,omitempty"`
	Rejected     int                `json:"rejected,omitempty"`
	Seed         int64              `json:"seed,omitempty"`

	// error
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

// Terminal reports whether the message ends a run
func (r Response) Terminal() bool {
	return r.Type == TypeResult || r.Type == TypeError
}

func progressResponse(runID string, p optimizer.Progress) Response {
	return Response{
		Type:           TypeProgress,
		RunID:          runID,
		Progress:       p.Percent,
		Generation:     p.Generation,
		BestConfidence: p.BestConfidence,
	}
}

func resultResponse(runID string, seed int64, res *optimizer.Result) Response {
	combos := res.Combinations
	if combos == nil {
		combos = []domain.Candidate{}
	}
	return Response{
		Type:         TypeResult,
		RunID:        runID,
		Combinations: combos,
		Generations:  res.Generations,
		Rejected:     res.Rejected,
		Seed:         seed,
	}
}

func errorResponse(runID string, err error) Response {
	return Response{
		Type:    TypeError,
		RunID:   runID,
		Message: err.Error(),
		Kind:    ErrorKind(err),
	}
}

// ErrorKind classifies a run failure
func ErrorKind(err error) string {
	switch {
	case domain.IsConfigurationError(err):
		return KindConfiguration
	case errors.Is(err, domain.ErrScoring):
		return KindScoring
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
