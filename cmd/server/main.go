// Package main is the entry point for the lotto combination service.
//
// Startup order: configuration, logger, history database, history service,
// worker, scheduler, HTTP server. SIGINT/SIGTERM stop them in reverse.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/config"
	"github.com/aristath/lotto/internal/database"
	"github.com/aristath/lotto/internal/events"
	"github.com/aristath/lotto/internal/metrics"
	"github.com/aristath/lotto/internal/modules/history"
	"github.com/aristath/lotto/internal/reliability"
	"github.com/aristath/lotto/internal/scheduler"
	"github.com/aristath/lotto/internal/server"
	"github.com/aristath/lotto/internal/worker"
	"github.com/aristath/lotto/pkg/logger"
)

const (
	maintenanceSchedule = "0 15 * * * *"
	backupKeep          = 14
	jobTimeout          = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)
	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting lotto")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	historyDB, err := database.New(database.Config{
		Path:    cfg.HistoryDBPath(),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	if err := historyDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate history database")
	}

	bus := events.NewBus(log)
	eventManager := events.NewManager(bus, log)
	m := metrics.New()

	historyService := newHistoryService(ctx, cfg, historyDB, eventManager, m, log)

	w := worker.New(worker.Config{
		Optimizer: cfg.Optimizer,
		Seed:      cfg.OptimizerSeed,
		Timeout:   cfg.GenerationTimeout,
	}, eventManager, m, log)

	sched := scheduler.New(log)
	registerJobs(ctx, cfg, sched, historyService, historyDB, eventManager, m, log)
	sched.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		HistoryDB: historyDB,
		History:   historyService,
		Worker:    w,
		Bus:       bus,
		Metrics:   m,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// newHistoryService loads the stored draws, importing the seed file into an
// empty database first
func newHistoryService(ctx context.Context, cfg *config.Config, db *database.DB, eventManager *events.Manager, m *metrics.Metrics, log zerolog.Logger) *history.Service {
	var provider history.Provider
	if cfg.History.URL != "" {
		provider = history.NewHTTPProvider(history.HTTPProviderConfig{
			URL:              cfg.History.URL,
			Timeout:          cfg.History.Timeout,
			FailureThreshold: cfg.History.FailureThreshold,
			OpenTimeout:      cfg.History.BreakerTimeout,
		}, log)
	}

	repo := history.NewRepository(db.Conn(), log)
	svc := history.NewService(repo, provider, eventManager, m, log)
	if err := svc.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load history")
	}

	if cfg.History.SeedFile != "" && len(svc.Draws()) == 0 {
		result, err := svc.ImportFile(ctx, cfg.History.SeedFile)
		if err != nil {
			log.Error().Err(err).Str("file", cfg.History.SeedFile).Msg("Failed to import seed history")
		} else {
			log.Info().Int("added", result.Added).Int("rejected", len(result.Rejected)).Msg("Seed history imported")
		}
	}
	return svc
}

func registerJobs(ctx context.Context, cfg *config.Config, sched *scheduler.Scheduler, historyService *history.Service, db *database.DB, eventManager *events.Manager, m *metrics.Metrics, log zerolog.Logger) {
	if cfg.History.URL != "" {
		job := scheduler.NewRefreshHistoryJob(historyService, cfg.History.Timeout*2, log)
		if err := sched.AddJob(cfg.History.RefreshSchedule, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule history refresh")
		}
		// Catch up on draws published while the service was down
		go func() {
			if err := sched.RunNow(job); err != nil {
				log.Warn().Err(err).Msg("Startup refresh failed")
			}
		}()
	}

	maintenance := reliability.NewMaintenanceJob(map[string]*database.DB{"history": db}, cfg.DataDir, log)
	if err := sched.AddJob(maintenanceSchedule, maintenance); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule maintenance")
	}

	if !cfg.Backup.Enabled {
		return
	}
	store, err := reliability.NewS3Client(ctx, reliability.S3Config{
		Bucket:          cfg.Backup.Bucket,
		Region:          cfg.Backup.Region,
		Endpoint:        cfg.Backup.Endpoint,
		AccessKeyID:     cfg.Backup.AccessKeyID,
		SecretAccessKey: cfg.Backup.SecretAccessKey,
	}, log)
	if err != nil {
		log.Error().Err(err).Msg("Backups disabled: failed to create S3 client")
		return
	}
	backups := reliability.NewBackupService(db, store, reliability.BackupConfig{
		Prefix:     cfg.Backup.Prefix,
		StagingDir: filepath.Join(cfg.DataDir, "backups"),
		Keep:       backupKeep,
	}, eventManager, m, log)
	if err := sched.AddJob(cfg.Backup.Schedule, scheduler.NewBackupJob(backups, jobTimeout, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule backups")
	}
}
