package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks contradictory or impossible request settings.
	// It is raised before any generation runs.
	ErrConfiguration = errors.New("configuration error")

	// ErrScoring marks an unexpected fault while computing a confidence score.
	// It aborts the whole run.
	ErrScoring = errors.New("scoring failure")
)

// ConfigError wraps ErrConfiguration with a formatted description
func ConfigError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// ScoringError wraps ErrScoring with a formatted description
func ScoringError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrScoring, fmt.Sprintf(format, args...))
}

// IsConfigurationError reports whether err is (or wraps) a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
