package domain

import "time"

// MarketData is a per-category market snapshot. Trends are in [-1, 1], the
// seasonal factor in [0, 1].
type MarketData struct {
	Category       Category  `json:"category"`
	DemandTrend    float64   `json:"demandTrend"`
	SupplyTrend    float64   `json:"supplyTrend"`
	PriceTrend     float64   `json:"priceTrend"`
	SeasonalFactor float64   `json:"seasonalFactor"`
	AveragePrice   float64   `json:"averagePrice"`
	MarketVolume   float64   `json:"marketVolume"`
	Source         string    `json:"source,omitempty"`
	ObservedAt     time.Time `json:"observedAt"`
}

// Normalize clamps every field into its documented range.
func (m MarketData) Normalize() MarketData {
	m.DemandTrend = clamp(m.DemandTrend, -1, 1)
	m.SupplyTrend = clamp(m.SupplyTrend, -1, 1)
	m.PriceTrend = clamp(m.PriceTrend, -1, 1)
	m.SeasonalFactor = clamp(m.SeasonalFactor, 0, 1)
	if m.AveragePrice < 0 {
		m.AveragePrice = 0
	}
	if m.MarketVolume < 0 {
		m.MarketVolume = 0
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
