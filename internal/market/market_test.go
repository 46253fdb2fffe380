package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/config"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/metrics"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSimulatedProviderIsDeterministic(t *testing.T) {
	now := time.Date(2026, time.December, 3, 10, 0, 0, 0, time.UTC)
	p := NewSimulatedProvider(fixedClock(now))

	first, err := p.MarketData(context.Background(), domain.CategorySmartphone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.MarketData(context.Background(), domain.CategorySmartphone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("snapshots differ (-first +second):\n%s", diff)
	}

	want := domain.MarketData{
		Category:       domain.CategorySmartphone,
		DemandTrend:    0.3,
		SupplyTrend:    0.1,
		PriceTrend:     0.15,
		SeasonalFactor: 0.9,
		AveragePrice:   450,
		MarketVolume:   12000,
		Source:         SourceSimulated,
		ObservedAt:     now,
	}
	if diff := cmp.Diff(want, first); diff != "" {
		t.Fatalf("unexpected snapshot (-want +got):\n%s", diff)
	}
}

func TestSimulatedProviderCoversEveryCategory(t *testing.T) {
	p := NewSimulatedProvider(fixedClock(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)))
	for _, c := range domain.Categories {
		m, err := p.MarketData(context.Background(), c)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c, err)
		}
		if m.Category != c || m.SeasonalFactor != 0.5 {
			t.Fatalf("%s: unexpected snapshot %+v", c, m)
		}
	}

	m, err := p.MarketData(context.Background(), domain.Category("drone"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.AveragePrice != baselines[domain.CategoryOther].averagePrice {
		t.Fatalf("expected unknown category to use the fallback baseline, got %+v", m)
	}
}

func TestSimulatedProviderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSimulatedProvider(nil).MarketData(ctx, domain.CategoryLaptop); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func newTestHTTPProvider(t *testing.T, srv *httptest.Server, threshold uint32) *HTTPProvider {
	t.Helper()
	p, err := NewHTTPProvider(HTTPConfig{
		BaseURL:          srv.URL,
		Timeout:          time.Second,
		FailureThreshold: threshold,
		OpenTimeout:      time.Minute,
	}, srv.Client(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func TestHTTPProviderDecodesAndClamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/categories/laptop" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"category":"laptop","demandTrend":1.7,"supplyTrend":-0.2,"priceTrend":0.12,"seasonalFactor":1.4,"averagePrice":-5,"marketVolume":300,"observedAt":"2026-10-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	got, err := newTestHTTPProvider(t, srv, 5).MarketData(context.Background(), domain.CategoryLaptop)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := domain.MarketData{
		Category:       domain.CategoryLaptop,
		DemandTrend:    1,
		SupplyTrend:    -0.2,
		PriceTrend:     0.12,
		SeasonalFactor: 1,
		AveragePrice:   0,
		MarketVolume:   300,
		Source:         SourceHTTP,
		ObservedAt:     time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected snapshot (-want +got):\n%s", diff)
	}
}

func TestHTTPProviderWrapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestHTTPProvider(t, srv, 5).MarketData(context.Background(), domain.CategoryTablet)
	if !errors.Is(err, domain.ErrMarketUnavailable) {
		t.Fatalf("expected ErrMarketUnavailable, got %v", err)
	}
}

func TestHTTPProviderOpensCircuit(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := newTestHTTPProvider(t, srv, 2)
	for i := 0; i < 5; i++ {
		if _, err := p.MarketData(context.Background(), domain.CategoryDesktop); !errors.Is(err, domain.ErrMarketUnavailable) {
			t.Fatalf("attempt %d: expected ErrMarketUnavailable, got %v", i, err)
		}
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected the breaker to stop calls after 2 failures, feed saw %d", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("market-feed")); got != 2 {
		t.Fatalf("expected breaker state gauge 2 (open), got %v", got)
	}
}

func TestNewHTTPProviderRejectsBadURL(t *testing.T) {
	if _, err := NewHTTPProvider(HTTPConfig{BaseURL: "not a url"}, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for invalid base url")
	}
}

type countingProvider struct {
	calls atomic.Int32
	err   error
	delay time.Duration
}

func (p *countingProvider) MarketData(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.err != nil {
		return domain.MarketData{}, p.err
	}
	return domain.MarketData{Category: category, PriceTrend: 0.1}, nil
}

func TestCachedProviderServesUntilExpiry(t *testing.T) {
	now := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	upstream := &countingProvider{}
	c := NewCachedProvider(upstream, time.Minute).WithClock(func() time.Time { return now })

	hitsBefore := testutil.ToFloat64(metrics.MarketCacheHits)
	for i := 0; i < 3; i++ {
		if _, err := c.MarketData(context.Background(), domain.CategorySmartphone); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := upstream.calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream call, got %d", got)
	}
	if got := testutil.ToFloat64(metrics.MarketCacheHits) - hitsBefore; got != 2 {
		t.Fatalf("expected 2 cache hits, got %v", got)
	}

	now = now.Add(time.Minute)
	if _, err := c.MarketData(context.Background(), domain.CategorySmartphone); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := upstream.calls.Load(); got != 2 {
		t.Fatalf("expected refetch after expiry, got %d calls", got)
	}

	c.Invalidate()
	if _, err := c.MarketData(context.Background(), domain.CategorySmartphone); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := upstream.calls.Load(); got != 3 {
		t.Fatalf("expected refetch after invalidate, got %d calls", got)
	}
}

func TestCachedProviderDoesNotCacheErrors(t *testing.T) {
	upstream := &countingProvider{err: domain.ErrMarketUnavailable}
	c := NewCachedProvider(upstream, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.MarketData(context.Background(), domain.CategoryLaptop); !errors.Is(err, domain.ErrMarketUnavailable) {
			t.Fatalf("expected ErrMarketUnavailable, got %v", err)
		}
	}
	if got := upstream.calls.Load(); got != 2 {
		t.Fatalf("expected every failing call to reach upstream, got %d", got)
	}
}

func TestCachedProviderCollapsesConcurrentMisses(t *testing.T) {
	upstream := &countingProvider{delay: 50 * time.Millisecond}
	c := NewCachedProvider(upstream, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.MarketData(context.Background(), domain.CategoryTablet); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := upstream.calls.Load(); got != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", got)
	}
}

// gatedProvider blocks each fetch until release is closed or its context ends.
type gatedProvider struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedProvider) MarketData(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return domain.MarketData{Category: category, DemandTrend: 0.2}, nil
	case <-ctx.Done():
		return domain.MarketData{}, ctx.Err()
	}
}

func TestCachedProviderSharedFetchSurvivesCancelledCaller(t *testing.T) {
	upstream := &gatedProvider{started: make(chan struct{}), release: make(chan struct{})}
	c := NewCachedProvider(upstream, time.Minute)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.MarketData(firstCtx, domain.CategoryLaptop)
		firstErr <- err
	}()
	<-upstream.started

	type result struct {
		data domain.MarketData
		err  error
	}
	second := make(chan result, 1)
	go func() {
		data, err := c.MarketData(context.Background(), domain.CategoryLaptop)
		second <- result{data: data, err: err}
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the cancelled caller to see context.Canceled, got %v", err)
	}

	close(upstream.release)
	got := <-second
	if got.err != nil {
		t.Fatalf("live caller failed after another caller cancelled: %v", got.err)
	}
	if got.data.Category != domain.CategoryLaptop || got.data.DemandTrend != 0.2 {
		t.Fatalf("unexpected snapshot %+v", got.data)
	}

	if _, err := c.MarketData(context.Background(), domain.CategoryLaptop); err != nil {
		t.Fatalf("expected the shared result to be cached, got %v", err)
	}
}

func TestCachedProviderDisabled(t *testing.T) {
	upstream := &countingProvider{}
	c := NewCachedProvider(upstream, 0)
	for i := 0; i < 2; i++ {
		_, _ = c.MarketData(context.Background(), domain.CategoryOther)
	}
	if got := upstream.calls.Load(); got != 2 {
		t.Fatalf("expected pass-through, got %d calls", got)
	}
}

func TestNewFromConfig(t *testing.T) {
	p, err := NewFromConfig(config.MarketConfig{Source: SourceSimulated, CacheTTL: time.Minute}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*CachedProvider); !ok {
		t.Fatalf("expected cached provider, got %T", p)
	}

	p, err = NewFromConfig(config.MarketConfig{Source: SourceHTTP, URL: "http://feed.internal", Timeout: time.Second}, zerolog.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := p.(*HTTPProvider); !ok {
		t.Fatalf("expected uncached http provider, got %T", p)
	}

	if _, err := NewFromConfig(config.MarketConfig{Source: "carrier-pigeon"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
