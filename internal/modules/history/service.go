package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/domain"
	"github.com/aristath/lotto/internal/events"
	"github.com/aristath/lotto/internal/metrics"
	"github.com/aristath/lotto/internal/modules/statistics"
)

const moduleName = "history"

// ErrNoProvider is returned by Refresh when no feed is configured
var ErrNoProvider = errors.New("no history provider configured")

// RefreshResult summarizes one refresh
type RefreshResult struct {
	Source   string      `json:"source"`
	Fetched  int         `json:"fetched"`
	Accepted int         `json:"accepted"`
	Rejected []Rejection `json:"rejected,omitempty"`
	Added    int         `json:"added"`
	Total    int         `json:"total"`
	Latest   string      `json:"latest,omitempty"`
}

// Status describes the cached history
type Status struct {
	DrawCount   int            `json:"drawCount"`
	Latest      string         `json:"latest,omitempty"`
	Source      string         `json:"source,omitempty"`
	LastRefresh *RefreshRecord `json:"lastRefresh,omitempty"`
}

// Service owns the cached history and its statistics snapshot.
// Readers always see a complete history/snapshot pair.
type Service struct {
	repo     *Repository
	provider Provider
	events   *events.Manager
	metrics  *metrics.Metrics
	log      zerolog.Logger

	mu       sync.RWMutex
	draws    []domain.Draw
	snapshot *statistics.Snapshot

	refreshMu sync.Mutex
}

// NewService creates a history service. provider may be nil when the history
// is only ever loaded from the database.
func NewService(repo *Repository, provider Provider, eventManager *events.Manager, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		events:   eventManager,
		metrics:  m,
		log:      log.With().Str("service", "history").Logger(),
		draws:    []domain.Draw{},
		snapshot: statistics.Analyze(nil),
	}
}

// Load reads the stored history and rebuilds the snapshot
func (s *Service) Load(ctx context.Context) error {
	draws, err := s.repo.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	s.swap(draws)
	s.log.Info().Int("draws", len(draws)).Msg("History loaded")
	return nil
}

// Refresh pulls the provider, merges new draws and rebuilds the snapshot.
// When the provider fails the cached history is kept and the error returned.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	if s.provider == nil {
		return nil, ErrNoProvider
	}
	return s.pull(ctx, s.provider)
}

// ImportFile merges a JSON history file into the stored history, the same
// way a refresh merges the feed
func (s *Service) ImportFile(ctx context.Context, path string) (*RefreshResult, error) {
	return s.pull(ctx, NewFileProvider(path))
}

func (s *Service) pull(ctx context.Context, provider Provider) (*RefreshResult, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	source := provider.Name()
	record := RefreshRecord{RunAt: time.Now().UTC(), Source: source}

	raw, err := provider.Fetch(ctx)
	if err != nil {
		err = fmt.Errorf("failed to fetch history from %s: %w", source, err)
		record.Error = err.Error()
		s.fail(ctx, record, err)
		return nil, err
	}

	cleaned, rejected := Clean(raw, s.log)
	merged, added := Merge(s.Draws(), cleaned)

	stored, err := s.repo.Insert(ctx, added)
	if err != nil {
		record.Fetched = len(raw)
		record.Accepted = len(cleaned)
		record.Error = err.Error()
		s.fail(ctx, record, err)
		return nil, err
	}
	if stored != len(added) {
		s.log.Warn().Int("added", len(added)).Int("stored", stored).Msg("Some draws were already stored")
	}

	s.swap(merged)

	result := &RefreshResult{
		Source:   source,
		Fetched:  len(raw),
		Accepted: len(cleaned),
		Rejected: rejected,
		Added:    len(added),
		Total:    len(merged),
		Latest:   latestDate(merged),
	}

	record.Fetched = result.Fetched
	record.Accepted = result.Accepted
	record.Added = result.Added
	if err := s.repo.RecordRefresh(ctx, record); err != nil {
		s.log.Error().Err(err).Msg("Failed to record refresh")
	}

	s.metrics.ObserveRefresh(result.Total, nil)
	s.events.EmitTyped(moduleName, &events.HistoryRefreshedData{
		Source:   result.Source,
		Fetched:  result.Fetched,
		Accepted: result.Accepted,
		Added:    result.Added,
		Total:    result.Total,
		Latest:   result.Latest,
	})
	if result.Added > 0 {
		snap := s.Snapshot()
		s.events.EmitTyped(moduleName, &events.StatisticsUpdatedData{
			DrawCount: snap.DrawCount,
			Hot:       snap.Hot,
		})
	}

	s.log.Info().
		Str("source", source).
		Int("fetched", result.Fetched).
		Int("rejected", len(rejected)).
		Int("added", result.Added).
		Int("total", result.Total).
		Msg("History refreshed")
	return result, nil
}

func (s *Service) fail(ctx context.Context, record RefreshRecord, err error) {
	s.log.Error().Err(err).Str("source", record.Source).Msg("History refresh failed, keeping cached draws")
	if recErr := s.repo.RecordRefresh(ctx, record); recErr != nil {
		s.log.Error().Err(recErr).Msg("Failed to record refresh")
	}
	s.metrics.ObserveRefresh(len(s.Draws()), err)
	s.events.EmitError(moduleName, err, map[string]interface{}{"source": record.Source})
}

func (s *Service) swap(draws []domain.Draw) {
	snap := statistics.Analyze(draws)
	s.mu.Lock()
	s.draws = draws
	s.snapshot = snap
	s.mu.Unlock()
	s.metrics.SetHistoryDraws(len(draws))
}

// Snapshot returns the statistics of the current history
func (s *Service) Snapshot() *statistics.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Draws returns a copy of the current history, oldest first
func (s *Service) Draws() []domain.Draw {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Draw, len(s.draws))
	copy(out, s.draws)
	return out
}

// Latest returns the most recent draw
func (s *Service) Latest() (domain.Draw, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.draws) == 0 {
		return domain.Draw{}, false
	}
	return s.draws[len(s.draws)-1], true
}

// Status reports the cached history and the last refresh outcome
func (s *Service) Status(ctx context.Context) (*Status, error) {
	last, err := s.repo.LastRefresh(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	status := &Status{
		DrawCount:   len(s.draws),
		Latest:      latestDate(s.draws),
		LastRefresh: last,
	}
	s.mu.RUnlock()

	if s.provider != nil {
		status.Source = s.provider.Name()
	}
	return status, nil
}

func latestDate(draws []domain.Draw) string {
	if len(draws) == 0 {
		return ""
	}
	return draws[len(draws)-1].Date
}
