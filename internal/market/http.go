package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/metrics"
)

// SourceHTTP labels snapshots fetched from the remote feed.
const SourceHTTP = "http"

const maxResponseBytes = 1 << 20

// HTTPConfig configures the remote market feed client.
type HTTPConfig struct {
	BaseURL          string
	Timeout          time.Duration
	RequestsPerSec   float64
	Burst            int
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// HTTPProvider fetches snapshots from GET {base}/categories/{category}.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[domain.MarketData]
	logger  zerolog.Logger
	nowFn   func() time.Time
}

type snapshotResponse struct {
	Category       string    `json:"category"`
	DemandTrend    float64   `json:"demandTrend"`
	SupplyTrend    float64   `json:"supplyTrend"`
	PriceTrend     float64   `json:"priceTrend"`
	SeasonalFactor float64   `json:"seasonalFactor"`
	AveragePrice   float64   `json:"averagePrice"`
	MarketVolume   float64   `json:"marketVolume"`
	ObservedAt     time.Time `json:"observedAt"`
}

// NewHTTPProvider validates cfg and builds the client. A nil httpClient gets a
// client with cfg.Timeout.
func NewHTTPProvider(cfg HTTPConfig, httpClient *http.Client, logger zerolog.Logger) (*HTTPProvider, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("market: invalid base url %q", cfg.BaseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RequestsPerSec > 0 {
		limit = rate.Limit(cfg.RequestsPerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	logger = logger.With().Str("component", "market_http").Logger()
	name := "market-feed"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[domain.MarketData](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("market feed circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up is not a feed failure.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &HTTPProvider{
		baseURL: base.String(),
		client:  httpClient,
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
		logger:  logger,
		nowFn:   time.Now,
	}, nil
}

// MarketData implements Provider. Every failure wraps domain.ErrMarketUnavailable.
func (p *HTTPProvider) MarketData(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return domain.MarketData{}, fmt.Errorf("%w: rate limit: %v", domain.ErrMarketUnavailable, err)
	}

	data, err := p.cb.Execute(func() (domain.MarketData, error) {
		return p.fetch(ctx, category)
	})
	metrics.RecordMarketFetch(SourceHTTP, err)
	if err != nil {
		p.logger.Error().Err(err).Str("category", string(category)).Msg("market fetch failed")
		if errors.Is(err, domain.ErrMarketUnavailable) {
			return domain.MarketData{}, err
		}
		return domain.MarketData{}, fmt.Errorf("%w: %v", domain.ErrMarketUnavailable, err)
	}
	return data, nil
}

func (p *HTTPProvider) fetch(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	endpoint := p.baseURL + "/categories/" + url.PathEscape(string(category))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.MarketData{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return domain.MarketData{}, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return domain.MarketData{}, fmt.Errorf("%w: feed returned status %d", domain.ErrMarketUnavailable, resp.StatusCode)
	}

	var payload snapshotResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return domain.MarketData{}, fmt.Errorf("decode snapshot: %w", err)
	}

	observed := payload.ObservedAt
	if observed.IsZero() {
		observed = p.nowFn().UTC()
	}
	return domain.MarketData{
		Category:       category,
		DemandTrend:    payload.DemandTrend,
		SupplyTrend:    payload.SupplyTrend,
		PriceTrend:     payload.PriceTrend,
		SeasonalFactor: payload.SeasonalFactor,
		AveragePrice:   payload.AveragePrice,
		MarketVolume:   payload.MarketVolume,
		Source:         SourceHTTP,
		ObservedAt:     observed,
	}.Normalize(), nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
