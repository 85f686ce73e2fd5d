package history

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/aristath/lotto/internal/domain"
)

// Provider supplies raw draw records
type Provider interface {
	// Fetch returns the records currently served by the source
	Fetch(ctx context.Context) ([]RawDraw, error)
	// Name identifies the source in logs and the refresh log
	Name() string
}

// maxFeedBytes bounds the size of a history payload
const maxFeedBytes = 16 << 20

// HTTPProviderConfig configures an HTTP feed
type HTTPProviderConfig struct {
	URL              string
	Timeout          time.Duration
	FailureThreshold uint32        // consecutive failures before the breaker opens
	OpenTimeout      time.Duration // how long the breaker stays open
}

// HTTPProvider fetches a JSON history from a URL behind a circuit breaker
type HTTPProvider struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    zerolog.Logger
}

// NewHTTPProvider creates an HTTP feed client
func NewHTTPProvider(cfg HTTPProviderConfig, log zerolog.Logger) *HTTPProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 5 * time.Minute
	}

	p := &HTTPProvider{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("component", "history_feed").Logger(),
	}
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "history_feed",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("History feed circuit breaker changed state")
		},
	})
	return p
}

// Name returns the feed URL
func (p *HTTPProvider) Name() string {
	return p.url
}

// State returns the circuit breaker state
func (p *HTTPProvider) State() gobreaker.State {
	return p.cb.State()
}

// Fetch downloads and decodes the feed
func (p *HTTPProvider) Fetch(ctx context.Context) ([]RawDraw, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]RawDraw), nil
}

func (p *HTTPProvider) fetch(ctx context.Context) ([]RawDraw, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build history request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read history feed: %w", err)
	}
	return Decode(body)
}

// FileProvider reads a JSON history file
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider for a local file
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

// Name returns the file path
func (p *FileProvider) Name() string {
	return p.path
}

// Fetch reads and decodes the file
func (p *FileProvider) Fetch(ctx context.Context) ([]RawDraw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}
	return Decode(data)
}

// LoadFile reads, repairs and cleans a history file in one step
func LoadFile(path string, log zerolog.Logger) ([]domain.Draw, []Rejection, error) {
	raw, err := NewFileProvider(path).Fetch(context.Background())
	if err != nil {
		return nil, nil, err
	}
	draws, rejected := Clean(raw, log)
	return draws, rejected, nil
}
