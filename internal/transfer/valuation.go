package transfer

import (
	"math"
	"strings"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

const (
	// suggestionDepreciation is the yearly retention used by the suggestion value model.
	suggestionDepreciation = 0.8
	// timingDepreciation is the yearly retention used by the timing value model.
	timingDepreciation = 0.85

	defaultBaseValue           = 300.0
	defaultConditionMultiplier = 0.8
)

var baseValues = map[domain.Category]float64{
	domain.CategorySmartphone: 800,
	domain.CategoryLaptop:     1200,
	domain.CategoryTablet:     600,
	domain.CategoryDesktop:    1000,
	domain.CategorySmartwatch: 400,
	domain.CategoryHeadphones: 200,
	domain.CategoryOther:      300,
}

var conditionMultipliers = map[domain.Condition]float64{
	domain.ConditionExcellent: 1.0,
	domain.ConditionGood:      0.8,
	domain.ConditionFair:      0.6,
	domain.ConditionPoor:      0.3,
}

// BaseValue returns the new-device reference price for a category.
func BaseValue(category domain.Category) float64 {
	if v, ok := baseValues[category]; ok {
		return v
	}
	return defaultBaseValue
}

// ConditionMultiplier returns the value scalar for a raw condition string.
// Unrecognised input yields 0.8.
func ConditionMultiplier(raw string) float64 {
	c := domain.Condition(strings.ToLower(strings.TrimSpace(raw)))
	if v, ok := conditionMultipliers[c]; ok {
		return v
	}
	return defaultConditionMultiplier
}

// EstimateMarketValue applies the suggestion model: base × 0.8^age × condition, rounded.
func EstimateMarketValue(category domain.Category, age int, condition string) float64 {
	v := BaseValue(category) * math.Pow(suggestionDepreciation, float64(age)) * ConditionMultiplier(condition)
	return math.Max(0, math.Round(v))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func floatPtr(v float64) *float64 {
	return &v
}
