package transfer

import (
	"math"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

const hoursPerDay = 24

// AnalyzeDevice normalises a raw device record relative to now.
func AnalyzeDevice(rec domain.DeviceRecord, now time.Time) domain.DeviceAnalysis {
	category := domain.ParseCategory(rec.Category)
	condition, _ := domain.ParseCondition(rec.Condition)
	age := DeviceAge(rec.PurchaseDate, now)

	return domain.DeviceAnalysis{
		DeviceID:           rec.ID,
		Category:           category,
		Brand:              rec.Brand,
		Model:              rec.Model,
		SerialNumber:       rec.SerialNumber,
		PurchaseDate:       rec.PurchaseDate,
		Age:                age,
		Condition:          condition,
		MarketValue:        EstimateMarketValue(category, age, rec.Condition),
		UsagePattern:       UsagePatternFor(rec.LastUsedDate, now),
		MaintenanceHistory: append([]string(nil), rec.MaintenanceHistory...),
		TransferHistory:    append([]domain.TransferRecord(nil), rec.TransferHistory...),
	}
}

// DeviceAge is the ceiling of elapsed days over 365. Purchases in the future yield 0.
func DeviceAge(purchased, now time.Time) int {
	if purchased.IsZero() {
		return 0
	}
	days := elapsedDays(purchased, now)
	if days <= 0 {
		return 0
	}
	return int(math.Ceil(days / 365))
}

// UsagePatternFor buckets the time since last use. A device with no recorded
// use counts as unused.
func UsagePatternFor(lastUsed *time.Time, now time.Time) domain.UsagePattern {
	if lastUsed == nil || lastUsed.IsZero() {
		return domain.UsageNone
	}
	// A last-used date ahead of now is clock skew; treat it as just used.
	days := math.Ceil(max(0, elapsedDays(*lastUsed, now)))
	switch {
	case days < 7:
		return domain.UsageHigh
	case days < 30:
		return domain.UsageMedium
	case days < 90:
		return domain.UsageLow
	default:
		return domain.UsageNone
	}
}

func elapsedDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / hoursPerDay
}
