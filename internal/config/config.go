// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aristath/lotto/internal/modules/optimizer"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the history database (always absolute)
	LogLevel string
	Port     int
	DevMode  bool

	History   HistoryConfig
	Optimizer optimizer.Config
	// OptimizerSeed fixes the random source of every run; 0 seeds from the clock
	OptimizerSeed     int64
	GenerationTimeout time.Duration
	CORSOrigins       []string

	Backup BackupConfig
}

// HistoryConfig configures where draws come from and how often they are refreshed
type HistoryConfig struct {
	URL              string // HTTP JSON feed; empty disables refresh
	SeedFile         string // JSON file imported on startup when the database is empty
	RefreshSchedule  string // cron spec with seconds field
	Timeout          time.Duration
	FailureThreshold uint32
	BreakerTimeout   time.Duration
}

// BackupConfig configures offsite database snapshots
type BackupConfig struct {
	Enabled         bool
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3 compatible endpoint, empty for AWS
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string
}

// cronParser matches the scheduler's parser (seconds field plus descriptors)
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("LOTTO_DATA_DIR", "data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("GO_PORT", 8001),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		History: HistoryConfig{
			URL:              getEnv("HISTORY_URL", ""),
			SeedFile:         getEnv("HISTORY_SEED_FILE", ""),
			RefreshSchedule:  getEnv("HISTORY_REFRESH_SCHEDULE", "0 30 22 * * *"),
			Timeout:          getEnvAsDuration("HISTORY_TIMEOUT", 30*time.Second),
			FailureThreshold: uint32(getEnvAsInt("HISTORY_FAILURE_THRESHOLD", 3)),
			BreakerTimeout:   getEnvAsDuration("HISTORY_BREAKER_TIMEOUT", 5*time.Minute),
		},
		Optimizer: optimizer.Config{
			PopulationSize: getEnvAsInt("OPTIMIZER_POPULATION", optimizer.DefaultPopulationSize),
			Generations:    getEnvAsInt("OPTIMIZER_GENERATIONS", optimizer.DefaultGenerations),
			EliteCount:     getEnvAsInt("OPTIMIZER_ELITE", optimizer.DefaultEliteCount),
			TournamentSize: getEnvAsInt("OPTIMIZER_TOURNAMENT", optimizer.DefaultTournamentSize),
			MutationRate:   getEnvAsFloat("OPTIMIZER_MUTATION_RATE", optimizer.DefaultMutationRate),
			Workers:        getEnvAsInt("OPTIMIZER_WORKERS", optimizer.DefaultWorkers),
		},
		OptimizerSeed:     getEnvAsInt64("OPTIMIZER_SEED", 0),
		GenerationTimeout: getEnvAsDuration("GENERATION_TIMEOUT", 2*time.Minute),
		CORSOrigins:       getEnvAsList("CORS_ORIGINS", []string{"*"}),
		Backup: BackupConfig{
			Enabled:         getEnvAsBool("BACKUP_ENABLED", false),
			Bucket:          getEnv("BACKUP_BUCKET", ""),
			Prefix:          getEnv("BACKUP_PREFIX", "lotto"),
			Region:          getEnv("BACKUP_REGION", "us-east-1"),
			Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
			AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HistoryDBPath returns the location of the history database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Validate checks that the settings can run
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT must be in 1..65535, got %d", c.Port)
	}
	if err := c.Optimizer.Validate(); err != nil {
		return fmt.Errorf("invalid optimizer settings: %w", err)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive, got %s", c.GenerationTimeout)
	}
	if c.History.URL != "" {
		if _, err := cronParser.Parse(c.History.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid HISTORY_REFRESH_SCHEDULE %q: %w", c.History.RefreshSchedule, err)
		}
	}
	if c.Backup.Enabled {
		if c.Backup.Bucket == "" {
			return fmt.Errorf("BACKUP_BUCKET is required when backups are enabled")
		}
		if _, err := cronParser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid BACKUP_SCHEDULE %q: %w", c.Backup.Schedule, err)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
