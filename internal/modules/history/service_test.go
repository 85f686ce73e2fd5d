package history

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/lotto/internal/events"
	"github.com/aristath/lotto/internal/metrics"
	testhelpers "github.com/aristath/lotto/internal/testing"
)

type stubProvider struct {
	raw []RawDraw
	err error
}

func (p *stubProvider) Fetch(ctx context.Context) ([]RawDraw, error) {
	return p.raw, p.err
}

func (p *stubProvider) Name() string {
	return "stub"
}

type recorder struct {
	mu     sync.Mutex
	events []*events.Event
}

func (r *recorder) handle(e *events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestService(t *testing.T, provider Provider) (*Service, *Repository, *recorder, *metrics.Metrics) {
	t.Helper()
	db, cleanup := testhelpers.NewTestDB(t, "history")
	t.Cleanup(cleanup)

	bus := events.NewBus(zerolog.Nop())
	rec := &recorder{}
	for _, et := range events.AllTypes() {
		bus.Subscribe(et, rec.handle)
	}

	m := metrics.New()
	repo := NewRepository(db.Conn(), zerolog.Nop())
	svc := NewService(repo, provider, events.NewManager(bus, zerolog.Nop()), m, zerolog.Nop())
	return svc, repo, rec, m
}

func rawFromFixtures() []RawDraw {
	fixtures := testhelpers.NewDrawFixtures()
	raw := make([]RawDraw, len(fixtures))
	for i, d := range fixtures {
		raw[i] = RawDraw{Date: d.Date, Numbers: d.Numbers[:], Bonus: d.Bonus}
	}
	return raw
}

func TestService_StartsEmpty(t *testing.T) {
	svc, _, _, _ := newTestService(t, nil)

	require.NoError(t, svc.Load(context.Background()))
	assert.Empty(t, svc.Draws())
	assert.Equal(t, 0, svc.Snapshot().DrawCount)
	assert.Empty(t, svc.Snapshot().Hot)

	_, ok := svc.Latest()
	assert.False(t, ok)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestService_Refresh(t *testing.T) {
	provider := &stubProvider{raw: rawFromFixtures()}
	provider.raw = append(provider.raw, RawDraw{Date: "bad", Numbers: []int{1, 2, 3, 4, 5, 6}, Bonus: 7})

	svc, repo, rec, m := newTestService(t, provider)
	ctx := context.Background()

	result, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Fetched)
	assert.Equal(t, 5, result.Accepted)
	assert.Len(t, result.Rejected, 1)
	assert.Equal(t, 5, result.Added)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, "2024-01-17", result.Latest)

	assert.Equal(t, 5, svc.Snapshot().DrawCount)
	latest, ok := svc.Latest()
	require.True(t, ok)
	assert.Equal(t, "2024-01-17", latest.Date)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	assert.Equal(t, []events.EventType{events.HistoryRefreshed, events.StatisticsUpdated}, rec.types())
	assert.Equal(t, 5.0, gaugeValue(t, m, "lotto_history_draws"))

	// A second refresh with the same feed adds nothing and does not touch statistics
	result, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, []events.EventType{events.HistoryRefreshed, events.StatisticsUpdated, events.HistoryRefreshed}, rec.types())

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, status.DrawCount)
	assert.Equal(t, "stub", status.Source)
	require.NotNil(t, status.LastRefresh)
	assert.Equal(t, 6, status.LastRefresh.Fetched)
}

func TestService_RefreshFailureKeepsCache(t *testing.T) {
	provider := &stubProvider{raw: rawFromFixtures()}
	svc, _, rec, _ := newTestService(t, provider)
	ctx := context.Background()

	_, err := svc.Refresh(ctx)
	require.NoError(t, err)
	before := svc.Snapshot()

	provider.err = errors.New("feed unreachable")
	_, err = svc.Refresh(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed unreachable")

	assert.Same(t, before, svc.Snapshot())
	assert.Len(t, svc.Draws(), 5)
	assert.Contains(t, rec.types(), events.ErrorOccurred)

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.LastRefresh)
	assert.Contains(t, status.LastRefresh.Error, "feed unreachable")
}

func TestService_LoadFromDatabase(t *testing.T) {
	svc, repo, _, _ := newTestService(t, nil)
	ctx := context.Background()

	_, err := repo.Insert(ctx, testhelpers.NewDrawFixtures())
	require.NoError(t, err)

	require.NoError(t, svc.Load(ctx))
	assert.Len(t, svc.Draws(), 5)
	assert.Equal(t, 5, svc.Snapshot().DrawCount)
}

func TestService_DrawsIsACopy(t *testing.T) {
	svc, _, _, _ := newTestService(t, &stubProvider{raw: rawFromFixtures()})
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	draws := svc.Draws()
	draws[0].Bonus = 49
	assert.Equal(t, 8, svc.Draws()[0].Bonus)
}

func gaugeValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestService_ImportFile(t *testing.T) {
	svc, repo, rec, _ := newTestService(t, nil)
	ctx := context.Background()

	path := testhelpers.WriteHistoryFile(t, testhelpers.HistoryJSON)
	result, err := svc.ImportFile(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Fetched)
	assert.Equal(t, 4, result.Accepted)
	assert.Len(t, result.Rejected, 1)
	assert.Equal(t, 4, result.Added)
	assert.Len(t, svc.Draws(), 4)

	stored, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stored)
	assert.Contains(t, rec.types(), events.HistoryRefreshed)

	// Importing again adds nothing
	result, err = svc.ImportFile(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, result.Added)
	assert.Equal(t, 4, result.Total)
}
