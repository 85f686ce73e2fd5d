package reliability

import (
	"compress/gzip"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/database"
	"github.com/aristath/lotto/internal/events"
	"github.com/aristath/lotto/internal/metrics"
)

const (
	backupTimeLayout = "20060102-150405"
	backupSuffix     = ".db.gz"
	// minBackupsToKeep survives any retention setting
	minBackupsToKeep = 3
)

// BackupConfig configures the backup service
type BackupConfig struct {
	Prefix     string // key prefix inside the bucket
	StagingDir string // local scratch space for snapshots
	Keep       int    // newest backups kept by rotation; 0 keeps everything
}

// BackupResult describes one uploaded backup
type BackupResult struct {
	Key       string        `json:"key"`
	SizeBytes int64         `json:"sizeBytes"`
	Checksum  string        `json:"checksum"`
	Duration  time.Duration `json:"duration"`
	Rotated   int           `json:"rotated"`
}

// BackupService snapshots a database, compresses it and ships it to an object store
type BackupService struct {
	db      *database.DB
	store   ObjectStore
	cfg     BackupConfig
	events  *events.Manager
	metrics *metrics.Metrics
	now     func() time.Time
	log     zerolog.Logger
}

// NewBackupService creates a backup service
func NewBackupService(db *database.DB, store ObjectStore, cfg BackupConfig, eventManager *events.Manager, m *metrics.Metrics, log zerolog.Logger) *BackupService {
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	if cfg.StagingDir == "" {
		cfg.StagingDir = os.TempDir()
	}
	return &BackupService{
		db:      db,
		store:   store,
		cfg:     cfg,
		events:  eventManager,
		metrics: m,
		now:     time.Now,
		log:     log.With().Str("service", "backup").Logger(),
	}
}

// Backup uploads a compressed snapshot and rotates old backups
func (s *BackupService) Backup(ctx context.Context) (result *BackupResult, err error) {
	defer func() {
		s.metrics.ObserveBackup(err)
		if err != nil {
			s.events.EmitError("reliability", err, map[string]interface{}{"operation": "backup"})
		}
	}()

	start := s.now()
	name := fmt.Sprintf("%s-%s", s.db.Name(), start.UTC().Format(backupTimeLayout))

	if err := os.MkdirAll(s.cfg.StagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	stagingDir, err := os.MkdirTemp(s.cfg.StagingDir, "lotto-backup-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	snapshotPath := filepath.Join(stagingDir, name+".db")
	if err := s.db.Snapshot(ctx, snapshotPath); err != nil {
		return nil, err
	}

	archivePath := snapshotPath + ".gz"
	checksum, err := compressFile(snapshotPath, archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to compress snapshot: %w", err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	key := s.key(name + backupSuffix)
	if err := s.store.Upload(ctx, key, archive); err != nil {
		return nil, err
	}

	rotated, err := s.Rotate(ctx)
	if err != nil {
		// The new backup is safe; rotation retries next run
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	result = &BackupResult{
		Key:       key,
		SizeBytes: info.Size(),
		Checksum:  checksum,
		Duration:  time.Since(start),
		Rotated:   rotated,
	}

	s.events.EmitTyped("reliability", &events.BackupCompletedData{Key: key, SizeBytes: result.SizeBytes})
	s.log.Info().
		Str("key", key).
		Int64("size_bytes", result.SizeBytes).
		Dur("duration_ms", result.Duration).
		Int("rotated", rotated).
		Msg("Backup completed")
	return result, nil
}

// List returns the stored backups, newest first
func (s *BackupService) List(ctx context.Context) ([]ObjectInfo, error) {
	objects, err := s.store.List(ctx, s.key(s.db.Name()+"-"))
	if err != nil {
		return nil, err
	}

	backups := objects[:0]
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, backupSuffix) {
			backups = append(backups, obj)
		}
	}
	// Keys embed a sortable UTC timestamp
	sort.Slice(backups, func(i, j int) bool { return backups[i].Key > backups[j].Key })
	return backups, nil
}

// Rotate deletes backups beyond the newest Keep and returns how many were removed
func (s *BackupService) Rotate(ctx context.Context) (int, error) {
	if s.cfg.Keep <= 0 {
		return 0, nil
	}
	keep := s.cfg.Keep
	if keep < minBackupsToKeep {
		keep = minBackupsToKeep
	}

	backups, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, old := range backups[keep:] {
		if err := s.store.Delete(ctx, old.Key); err != nil {
			s.log.Error().Err(err).Str("key", old.Key).Msg("Failed to delete old backup")
			continue
		}
		deleted++
	}
	return deleted, nil
}

func (s *BackupService) key(name string) string {
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(s.cfg.Prefix, name)
}

// compressFile gzips src into dst and returns the sha256 of the compressed bytes
func compressFile(src, dst string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	hash := sha256.New()
	gz := gzip.NewWriter(io.MultiWriter(out, hash))
	if _, err := io.Copy(gz, in); err != nil {
		return "", err
	}
	if err := gz.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}
