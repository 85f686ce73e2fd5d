package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/lotto/internal/database"
)

// Disk space thresholds in bytes
const (
	criticalFreeBytes = 500 << 20
	warningFreeBytes  = 5 << 30
)

// MaintenanceJob checks integrity, checkpoints the WAL and watches disk space
type MaintenanceJob struct {
	databases map[string]*database.DB
	dataDir   string
	timeout   time.Duration
	log       zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job over the named databases
func NewMaintenanceJob(databases map[string]*database.DB, dataDir string, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		timeout:   time.Minute,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance steps. A failed integrity check or critically
// low disk space fails the job; WAL problems are only logged.
func (j *MaintenanceJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	for name, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Database integrity check failed")
			return err
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
		}

		if stats, err := db.GetStats(); err == nil {
			j.log.Debug().
				Str("database", name).
				Int64("size_bytes", stats.SizeBytes).
				Int64("wal_size_bytes", stats.WALSizeBytes).
				Int64("freelist", stats.FreelistCount).
				Msg("Database stats")
		}
	}

	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	j.log.Info().Dur("duration_ms", time.Since(start)).Msg("Maintenance completed")
	return nil
}

func (j *MaintenanceJob) checkDiskSpace() error {
	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to read disk usage of %s: %w", j.dataDir, err)
	}

	freeGB := float64(usage.Free) / 1e9
	switch {
	case usage.Free < criticalFreeBytes:
		j.log.Error().Float64("free_gb", freeGB).Msg("Insufficient disk space")
		return fmt.Errorf("only %.2f GB free in %s", freeGB, j.dataDir)
	case usage.Free < warningFreeBytes:
		j.log.Warn().Float64("free_gb", freeGB).Float64("used_percent", usage.UsedPercent).Msg("Disk space running low")
	default:
		j.log.Debug().Float64("free_gb", freeGB).Msg("Disk space check")
	}
	return nil
}
