// Package market supplies per-category market snapshots to the decision engine.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/config"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// Provider returns the current market snapshot for a device category.
type Provider interface {
	MarketData(ctx context.Context, category domain.Category) (domain.MarketData, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, category domain.Category) (domain.MarketData, error)

// MarketData calls f.
func (f ProviderFunc) MarketData(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	return f(ctx, category)
}

// NewFromConfig builds the configured market source and wraps it in the TTL
// cache. A zero CacheTTL disables caching.
func NewFromConfig(cfg config.MarketConfig, logger zerolog.Logger) (Provider, error) {
	var source Provider
	switch cfg.Source {
	case "", SourceSimulated:
		source = NewSimulatedProvider(time.Now)
	case SourceHTTP:
		p, err := NewHTTPProvider(HTTPConfig{
			BaseURL:          cfg.URL,
			Timeout:          cfg.Timeout,
			RequestsPerSec:   cfg.RequestsPerSec,
			Burst:            cfg.Burst,
			FailureThreshold: cfg.BreakerFailures,
			OpenTimeout:      cfg.BreakerTimeout,
		}, nil, logger)
		if err != nil {
			return nil, err
		}
		source = p
	default:
		return nil, fmt.Errorf("market: unknown source %q", cfg.Source)
	}

	if cfg.CacheTTL <= 0 {
		return source, nil
	}
	return NewCachedProvider(source, cfg.CacheTTL), nil
}
