package transfer

import (
	"fmt"
	"math"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// projectionYears is the horizon of the value projection (six months).
const projectionYears = 0.5

type timingDecision struct {
	recommendation domain.TimingRecommendation
	urgency        domain.Urgency
	window         domain.TransferWindow
}

// TimingValue applies the timing model: base × 0.85^age × condition × (1+priceTrend).
// The depreciation rate differs from EstimateMarketValue.
func TimingValue(category domain.Category, age int, condition domain.Condition, priceTrend float64) float64 {
	return BaseValue(category) *
		math.Pow(timingDepreciation, float64(age)) *
		ConditionMultiplier(string(condition)) *
		(1 + priceTrend)
}

// ProjectValue projects current forward six months.
func ProjectValue(current, priceTrend float64) float64 {
	return current * math.Pow(timingDepreciation, projectionYears) * (1 + priceTrend*projectionYears)
}

// OptimizeTiming recommends when to act on a device. now anchors the optimal
// transfer date.
func OptimizeTiming(device domain.DeviceAnalysis, market domain.MarketData, behavior domain.UserBehavior, now time.Time) domain.TransferTiming {
	current := TimingValue(device.Category, device.Age, device.Condition, market.PriceTrend)
	projected := ProjectValue(current, market.PriceTrend)

	var change float64
	if current > 0 {
		change = (projected - current) / current * 100
	}

	d := decideTiming(change, device, market, behavior)

	return domain.TransferTiming{
		DeviceID:            device.DeviceID,
		Recommendation:      d.recommendation,
		Urgency:             d.urgency,
		OptimalWindow:       d.window,
		OptimalTransferDate: now.AddDate(0, 0, d.window.OffsetDays()),
		Confidence:          timingConfidence(device, market, behavior),
		Reasoning:           timingReasoning(d, change, device, behavior),
		Analysis: domain.TimingAnalysis{
			CurrentValue:       math.Round(current),
			ProjectedValue:     math.Round(projected),
			ValueChangePercent: roundTo(change, 2),
			MarketFactors: domain.MarketFactors{
				DemandTrend:    market.DemandTrend,
				SupplyTrend:    market.SupplyTrend,
				PriceTrend:     market.PriceTrend,
				SeasonalFactor: market.SeasonalFactor,
				AveragePrice:   market.AveragePrice,
				MarketVolume:   market.MarketVolume,
				Outlook:        marketOutlook(market),
			},
			UserFactors: domain.UserFactors{
				UpgradeFrequency:    behavior.UpgradeFrequency,
				MarketplaceActivity: behavior.MarketplaceActivity,
				BudgetConscious:     behavior.BudgetConsciousness,
				Note:                userNote(behavior),
			},
			EnvironmentalFactors: domain.EnvironmentalFactors{
				DeviceAge:    device.Age,
				Condition:    device.Condition,
				UsagePattern: device.UsagePattern,
				Note:         usageNote(device.UsagePattern),
			},
		},
	}
}

func decideTiming(change float64, device domain.DeviceAnalysis, market domain.MarketData, behavior domain.UserBehavior) timingDecision {
	switch {
	case change < -20:
		return timingDecision{domain.TimingTransferSoon, domain.UrgencyCritical, domain.WindowNext7Days}
	case market.PriceTrend > 0.1 && change > 10:
		return timingDecision{domain.TimingWait, domain.UrgencyLow, domain.WindowNext90Days}
	case behavior.UpgradeFrequency == domain.UpgradeAnnual && device.Age > 2:
		return timingDecision{domain.TimingTransferNow, domain.UrgencyMedium, domain.WindowNext30Days}
	default:
		return timingDecision{domain.TimingHold, domain.UrgencyLow, domain.WindowNext60Days}
	}
}

func timingConfidence(device domain.DeviceAnalysis, market domain.MarketData, behavior domain.UserBehavior) float64 {
	c := 0.5 + math.Abs(market.PriceTrend)*0.2 + math.Abs(market.DemandTrend)*0.2
	if device.Age < 3 {
		c += 0.1
	} else {
		c -= 0.1
	}
	if device.Condition == domain.ConditionExcellent {
		c += 0.1
	}
	if behavior.MarketplaceActivity > 0 {
		c += 0.1
	}
	return roundTo(clamp01(c), 2)
}

func timingReasoning(d timingDecision, change float64, device domain.DeviceAnalysis, behavior domain.UserBehavior) string {
	switch d.recommendation {
	case domain.TimingTransferSoon:
		return fmt.Sprintf("Your %s is projected to lose %.1f%% of its value over the next six months. Act %s.",
			device.DisplayName(), math.Abs(change), d.window.Describe())
	case domain.TimingWait:
		return fmt.Sprintf("Prices are rising and your %s is projected to gain %.1f%% in value. Waiting should pay off.",
			device.DisplayName(), change)
	case domain.TimingTransferNow:
		return fmt.Sprintf("You usually upgrade every year and your %s is %d years old. Now is a good time to move it on.",
			device.DisplayName(), device.Age)
	default:
		return fmt.Sprintf("The value of your %s is stable (%.1f%% over six months). There is no rush to act.",
			device.DisplayName(), change)
	}
}

func marketOutlook(m domain.MarketData) string {
	switch {
	case m.DemandTrend > 0.1 && m.PriceTrend > 0.1:
		return "strong"
	case m.DemandTrend < -0.1 || m.PriceTrend < -0.1:
		return "weak"
	default:
		return "neutral"
	}
}

func userNote(b domain.UserBehavior) string {
	switch b.UpgradeFrequency {
	case domain.UpgradeAnnual:
		return "You upgrade frequently."
	case domain.UpgradeBiannual:
		return "You upgrade every couple of years."
	case domain.UpgradeEvery3Years:
		return "You keep devices for around three years."
	default:
		return "You tend to keep devices for a long time."
	}
}

func usageNote(u domain.UsagePattern) string {
	switch u {
	case domain.UsageHigh:
		return "The device is in regular use."
	case domain.UsageMedium:
		return "The device is used occasionally."
	case domain.UsageLow:
		return "The device is rarely used."
	default:
		return "The device appears to be unused."
	}
}
