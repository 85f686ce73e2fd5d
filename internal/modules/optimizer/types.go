package optimizer

import (
	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/modules/scoring"
	"github.com/aristath/lotto/internal/modules/statistics"
)

// State is the lifecycle position of an optimizer run
type State int32

// Run states. Done and Failed are terminal.
const (
	StateInit State = iota
	StateEvolving
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateEvolving:
		return "evolving"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Options select the strategy and seeding biases of a run
type Options struct {
	Strategy       string                `json:"strategy" yaml:"strategy"`
	UsePrediction  bool                  `json:"usePrediction" yaml:"usePrediction"`
	FavorHot       bool                  `json:"favorHot" yaml:"favorHot"`
	FavorCold      bool                  `json:"favorCold" yaml:"favorCold"`
	IncludeOverdue bool                  `json:"includeOverdue" yaml:"includeOverdue"`
	CustomRules    *domain.ConstraintSet `json:"customRules,omitempty" yaml:"customRules,omitempty"`
	Weights        *scoring.Weights      `json:"weights,omitempty" yaml:"weights,omitempty"`
}

// Request is everything one run needs. It is never mutated by the optimizer.
type Request struct {
	Snapshot   *statistics.Snapshot    `json:"snapshot"`
	Options    Options                 `json:"options"`
	Count      int                     `json:"count"`
	Prediction domain.PredictionVector `json:"predictionVector,omitempty"`
}

// Progress is emitted once per completed generation
type Progress struct {
	Generation     int     `json:"generation"`
	Total          int     `json:"total"`
	Percent        float64 `json:"progress"`
	BestConfidence float64 `json:"bestConfidence"`
}

// ProgressFunc receives progress notifications on the run's goroutine
type ProgressFunc func(Progress)

// Result is the terminal output of a successful run
type Result struct {
	Combinations []domain.Candidate `json:"combinations"`
	Generations  int                `json:"generations"`
	// BestByGeneration is the top confidence of each scored generation
	BestByGeneration []float64 `json:"bestByGeneration"`
	// Rejected counts final individuals dropped for breaking a constraint
	Rejected int `json:"rejected"`
}
