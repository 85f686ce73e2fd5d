package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/modules/history"
	"github.com/aristath/lotto/internal/reliability"
)

// HistoryRefresher refreshes the draw history
type HistoryRefresher interface {
	Refresh(ctx context.Context) (*history.RefreshResult, error)
}

// Backuper uploads a database snapshot
type Backuper interface {
	Backup(ctx context.Context) (*reliability.BackupResult, error)
}

// RefreshHistoryJob pulls new draws from the configured feed
type RefreshHistoryJob struct {
	refresher HistoryRefresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewRefreshHistoryJob creates a refresh job bounded by timeout
func NewRefreshHistoryJob(refresher HistoryRefresher, timeout time.Duration, log zerolog.Logger) *RefreshHistoryJob {
	return &RefreshHistoryJob{
		refresher: refresher,
		timeout:   timeout,
		log:       log.With().Str("job", "refresh_history").Logger(),
	}
}

// Name returns the job name
func (j *RefreshHistoryJob) Name() string {
	return "refresh_history"
}

// Run executes the refresh
func (j *RefreshHistoryJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("history refresh failed: %w", err)
	}

	j.log.Info().
		Int("added", result.Added).
		Int("total", result.Total).
		Str("latest", result.Latest).
		Msg("Scheduled history refresh completed")
	return nil
}

// BackupJob uploads a snapshot of the history database
type BackupJob struct {
	backuper Backuper
	timeout  time.Duration
	log      zerolog.Logger
}

// NewBackupJob creates a backup job bounded by timeout
func NewBackupJob(backuper Backuper, timeout time.Duration, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backuper: backuper,
		timeout:  timeout,
		log:      log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.backuper.Backup(ctx)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	j.log.Info().
		Str("key", result.Key).
		Int64("size_bytes", result.SizeBytes).
		Msg("Scheduled backup completed")
	return nil
}
