package market

import (
	"context"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/metrics"
)

// SourceSimulated labels snapshots produced by SimulatedProvider.
const SourceSimulated = "simulated"

type baseline struct {
	demand, supply, price float64
	averagePrice, volume  float64
}

var baselines = map[domain.Category]baseline{
	domain.CategorySmartphone: {demand: 0.3, supply: 0.1, price: 0.15, averagePrice: 450, volume: 12000},
	domain.CategoryLaptop:     {demand: 0.2, supply: 0.05, price: 0.12, averagePrice: 700, volume: 6000},
	domain.CategoryTablet:     {demand: 0.05, supply: 0.2, price: -0.05, averagePrice: 300, volume: 4000},
	domain.CategoryDesktop:    {demand: -0.1, supply: 0.15, price: -0.12, averagePrice: 500, volume: 2000},
	domain.CategorySmartwatch: {demand: 0.25, supply: 0.1, price: 0.08, averagePrice: 200, volume: 5000},
	domain.CategoryHeadphones: {demand: 0.1, supply: 0.25, price: -0.02, averagePrice: 90, volume: 9000},
	domain.CategoryOther:      {demand: 0, supply: 0.1, price: -0.05, averagePrice: 120, volume: 1500},
}

// SimulatedProvider serves a fixed per-category table. The seasonal factor
// follows the calendar month of the injected clock.
type SimulatedProvider struct {
	nowFn func() time.Time
}

// NewSimulatedProvider builds a provider reading the time from nowFn. A nil
// nowFn uses time.Now.
func NewSimulatedProvider(nowFn func() time.Time) *SimulatedProvider {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &SimulatedProvider{nowFn: nowFn}
}

// MarketData implements Provider. It only fails when ctx is already done.
func (p *SimulatedProvider) MarketData(ctx context.Context, category domain.Category) (domain.MarketData, error) {
	if err := ctx.Err(); err != nil {
		return domain.MarketData{}, err
	}
	b, ok := baselines[category]
	if !ok {
		b = baselines[domain.CategoryOther]
	}
	now := p.nowFn().UTC()
	metrics.RecordMarketFetch(SourceSimulated, nil)
	return domain.MarketData{
		Category:       category,
		DemandTrend:    b.demand,
		SupplyTrend:    b.supply,
		PriceTrend:     b.price,
		SeasonalFactor: SeasonalFactor(now.Month()),
		AveragePrice:   b.averagePrice,
		MarketVolume:   b.volume,
		Source:         SourceSimulated,
		ObservedAt:     now,
	}.Normalize(), nil
}

// SeasonalFactor rates how favourable a month is for resale.
func SeasonalFactor(m time.Month) float64 {
	switch m {
	case time.November, time.December:
		return 0.9
	case time.August, time.September:
		return 0.7
	case time.January, time.February:
		return 0.3
	default:
		return 0.5
	}
}
