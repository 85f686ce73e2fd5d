// Package optimizer evolves a population of combinations towards high confidence.
package optimizer

import (
	"github.com/aristath/lotto/internal/domain"
)

// Default tuning values
const (
	DefaultPopulationSize = 150
	DefaultGenerations    = 80
	DefaultEliteCount     = 2
	DefaultTournamentSize = 5
	DefaultMutationRate   = 0.05
	DefaultWorkers        = 10
)

// Weight vector bonuses applied while seeding the initial population
const (
	predictionFloor = 0.1
	predictionScale = 2.0
	hotBonus        = 0.5
	coldBonus       = 0.5
	overdueBonus    = 0.4
)

// Config holds the genetic algorithm parameters
type Config struct {
	PopulationSize int     `json:"populationSize"`
	Generations    int     `json:"generations"`
	EliteCount     int     `json:"eliteCount"`
	TournamentSize int     `json:"tournamentSize"`
	MutationRate   float64 `json:"mutationRate"`
	Workers        int     `json:"workers"` // parallel scorers per generation
}

// DefaultConfig returns the standard tuning
func DefaultConfig() Config {
	return Config{
		PopulationSize: DefaultPopulationSize,
		Generations:    DefaultGenerations,
		EliteCount:     DefaultEliteCount,
		TournamentSize: DefaultTournamentSize,
		MutationRate:   DefaultMutationRate,
		Workers:        DefaultWorkers,
	}
}

// Validate rejects settings the algorithm cannot run with
func (c Config) Validate() error {
	if c.PopulationSize < 2 {
		return domain.ConfigError("population size must be at least 2, got %d", c.PopulationSize)
	}
	if c.Generations < 1 {
		return domain.ConfigError("generations must be at least 1, got %d", c.Generations)
	}
	if c.EliteCount < 0 || c.EliteCount >= c.PopulationSize {
		return domain.ConfigError("elite count must be in [0,%d), got %d", c.PopulationSize, c.EliteCount)
	}
	if c.TournamentSize < 1 {
		return domain.ConfigError("tournament size must be at least 1, got %d", c.TournamentSize)
	}
	if !(c.MutationRate >= 0 && c.MutationRate <= 1) {
		return domain.ConfigError("mutation rate must be in [0,1], got %v", c.MutationRate)
	}
	if c.Workers < 0 {
		return domain.ConfigError("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
