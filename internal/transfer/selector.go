package transfer

import (
	"fmt"
	"math"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

type evaluation struct {
	Device   domain.DeviceAnalysis
	Behavior domain.UserBehavior
	Market   domain.MarketData
}

type rule struct {
	kind    domain.SuggestionType
	matches func(evaluation) bool
	build   func(evaluation) domain.TransferSuggestion
}

// rules is evaluated top to bottom and the first match wins. Overlapping
// conditions are resolved purely by position.
var rules = []rule{
	{kind: domain.SuggestionUpgrade, matches: upgradeMatches, build: buildUpgrade},
	{kind: domain.SuggestionDonate, matches: donateMatches, build: buildDonate},
	{kind: domain.SuggestionSell, matches: sellMatches, build: buildSell},
	{kind: domain.SuggestionGift, matches: giftMatches, build: buildGift},
	{kind: domain.SuggestionRecycle, matches: recycleMatches, build: buildRecycle},
	// Unreachable while recycle matches every poor-condition device.
	{kind: domain.SuggestionRepair, matches: repairMatches, build: buildRepair},
}

// SelectSuggestion returns the suggestion of the first matching rule, or false
// when no rule applies to the device.
func SelectSuggestion(device domain.DeviceAnalysis, behavior domain.UserBehavior, market domain.MarketData) (domain.TransferSuggestion, bool) {
	ev := evaluation{Device: device, Behavior: behavior, Market: market}
	for _, r := range rules {
		if !r.matches(ev) {
			continue
		}
		s := r.build(ev)
		s.DeviceID = ev.Device.DeviceID
		s.SuggestionType = r.kind
		s.Confidence = clamp01(s.Confidence)
		s.MarketTrend = describeMarketTrend(ev.Market)
		return s, true
	}
	return domain.TransferSuggestion{}, false
}

func upgradeMatches(ev evaluation) bool {
	return ev.Device.Age > 3 &&
		ev.Behavior.UpgradeFrequency != domain.UpgradeRarely &&
		ev.Device.MarketValue > 200 &&
		ev.Market.PriceTrend > 0.1
}

func buildUpgrade(ev evaluation) domain.TransferSuggestion {
	d := ev.Device
	urgency := domain.UrgencyLow
	switch {
	case d.Age > 5:
		urgency = domain.UrgencyHigh
	case d.Age > 4:
		urgency = domain.UrgencyMedium
	}
	tradeIn := math.Round(d.MarketValue * 0.6)
	return domain.TransferSuggestion{
		Confidence: math.Min(0.9, 0.6+float64(d.Age-3)*0.1),
		Reasoning: fmt.Sprintf("Your %s is %d years old and %s prices are rising, so trade-in offers are strong while newer models bring real improvements.",
			d.DisplayName(), d.Age, d.Category),
		EstimatedValue:      floatPtr(tradeIn),
		RecommendedAction:   fmt.Sprintf("Trade in your %s toward a newer %s.", d.DisplayName(), d.Category),
		Urgency:             urgency,
		OptimalTiming:       "Trade in within the next 30 days while prices are rising.",
		EnvironmentalImpact: "Trade-in programmes refurbish or responsibly recycle returned devices.",
		TaxBenefits:         "Trade-in credit is not taxable income.",
	}
}

func donateMatches(ev evaluation) bool {
	d, b := ev.Device, ev.Behavior
	return (d.Age > 5 || d.MarketValue < 150) &&
		(b.CharitableGiving || b.EnvironmentalConsciousness) &&
		d.Condition != domain.ConditionPoor
}

func buildDonate(ev evaluation) domain.TransferSuggestion {
	d := ev.Device
	reason := fmt.Sprintf("Your %s still works but has little resale value left.", d.DisplayName())
	if d.Age > 5 {
		reason = fmt.Sprintf("Your %s is %d years old but still in %s condition.", d.DisplayName(), d.Age, d.Condition)
	}
	return domain.TransferSuggestion{
		Confidence:          0.85,
		Reasoning:           reason + " Donating it gives someone in need a working device.",
		EstimatedValue:      floatPtr(d.MarketValue),
		RecommendedAction:   fmt.Sprintf("Donate your %s to a local school or charity.", d.DisplayName()),
		Urgency:             domain.UrgencyLow,
		OptimalTiming:       "Any time; charities accept devices year-round.",
		EnvironmentalImpact: "Extending a device's life avoids the emissions of manufacturing a new one.",
		TaxBenefits:         "Donations to registered charities may be tax-deductible at fair market value.",
	}
}

func sellMatches(ev evaluation) bool {
	d := ev.Device
	return d.MarketValue > 200 &&
		d.Age < 5 &&
		ev.Behavior.MarketplaceActivity > 0 &&
		ev.Market.DemandTrend > 0.1
}

func buildSell(ev evaluation) domain.TransferSuggestion {
	d := ev.Device
	urgency := domain.UrgencyMedium
	if ev.Market.PriceTrend > 0.2 {
		urgency = domain.UrgencyHigh
	}
	return domain.TransferSuggestion{
		Confidence: 0.8,
		Reasoning: fmt.Sprintf("Demand for %s devices is up and your %s is only %d years old, so it should sell quickly at a good price.",
			d.Category, d.DisplayName(), d.Age),
		EstimatedValue:      floatPtr(d.MarketValue),
		RecommendedAction:   fmt.Sprintf("List your %s on the marketplace.", d.DisplayName()),
		Urgency:             urgency,
		OptimalTiming:       "List now while buyer demand is high.",
		EnvironmentalImpact: "Reselling keeps a working device in circulation.",
		TaxBenefits:         "Personal device sales below the purchase price are usually not taxable.",
	}
}

func giftMatches(ev evaluation) bool {
	d := ev.Device
	return d.Age < 4 && d.Condition == domain.ConditionExcellent && ev.Behavior.DeviceCount > 2
}

func buildGift(ev evaluation) domain.TransferSuggestion {
	d := ev.Device
	return domain.TransferSuggestion{
		Confidence: 0.75,
		Reasoning: fmt.Sprintf("You own %d devices and your %s is in excellent condition, making it a thoughtful gift.",
			ev.Behavior.DeviceCount, d.DisplayName()),
		EstimatedValue:      floatPtr(d.MarketValue),
		RecommendedAction:   fmt.Sprintf("Gift your %s to a friend or family member.", d.DisplayName()),
		Urgency:             domain.UrgencyLow,
		OptimalTiming:       "Ahead of birthdays or the holiday season.",
		EnvironmentalImpact: "Gifting avoids a new purchase for the recipient.",
		TaxBenefits:         "Gifts below the annual exclusion amount carry no gift tax.",
	}
}

func recycleMatches(ev evaluation) bool {
	d := ev.Device
	return d.Age > 7 || d.Condition == domain.ConditionPoor || d.MarketValue < 50
}

func buildRecycle(ev evaluation) domain.TransferSuggestion {
	d := ev.Device
	var reason string
	switch {
	case d.Condition == domain.ConditionPoor:
		reason = fmt.Sprintf("Your %s is in poor condition and unlikely to be worth repairing.", d.DisplayName())
	case d.Age > 7:
		reason = fmt.Sprintf("Your %s is %d years old and near the end of its useful life.", d.DisplayName(), d.Age)
	default:
		reason = fmt.Sprintf("Your %s has almost no resale value left.", d.DisplayName())
	}
	return domain.TransferSuggestion{
		Confidence:          0.9,
		Reasoning:           reason + " Certified recycling recovers valuable materials safely.",
		RecommendedAction:   fmt.Sprintf("Take your %s to a certified e-waste recycler.", d.DisplayName()),
		Urgency:             domain.UrgencyMedium,
		OptimalTiming:       "Within the next week, after backing up and wiping your data.",
		EnvironmentalImpact: "Proper recycling keeps lead, mercury and lithium out of landfills.",
		TaxBenefits:         "Some regions offer rebates for certified e-waste recycling.",
	}
}

func repairMatches(ev evaluation) bool {
	d := ev.Device
	return d.Age < 4 &&
		d.Condition == domain.ConditionPoor &&
		d.MarketValue > 300 &&
		ev.Behavior.BudgetConsciousness
}

func buildRepair(ev evaluation) domain.TransferSuggestion {
	d := ev.Device
	repairCost := math.Round(d.MarketValue * 0.3)
	return domain.TransferSuggestion{
		Confidence: 0.8,
		Reasoning: fmt.Sprintf("Your %s is only %d years old; a repair costing about %.0f restores most of its value.",
			d.DisplayName(), d.Age, repairCost),
		EstimatedValue:      floatPtr(d.MarketValue - repairCost),
		RecommendedAction:   fmt.Sprintf("Book a repair for your %s.", d.DisplayName()),
		Urgency:             domain.UrgencyMedium,
		OptimalTiming:       "Book a repair soon before further damage occurs.",
		EnvironmentalImpact: "Repairing is the lowest-impact way to keep a device in use.",
		TaxBenefits:         "Repair costs for business-use devices may be deductible.",
	}
}

func describeMarketTrend(m domain.MarketData) string {
	switch {
	case m.PriceTrend > 0.1:
		return fmt.Sprintf("Prices for %s devices are rising.", m.Category)
	case m.PriceTrend < -0.1:
		return fmt.Sprintf("Prices for %s devices are falling.", m.Category)
	default:
		return fmt.Sprintf("Prices for %s devices are stable.", m.Category)
	}
}
