package domain

import "time"

// TimingRecommendation tells the user whether to act now or wait.
type TimingRecommendation string

const (
	TimingTransferSoon TimingRecommendation = "transfer_soon"
	TimingWait         TimingRecommendation = "wait"
	TimingTransferNow  TimingRecommendation = "transfer_now"
	TimingHold         TimingRecommendation = "hold"
)

// TransferWindow is a relative time horizon for acting on a recommendation.
type TransferWindow string

const (
	WindowImmediate  TransferWindow = "immediate"
	WindowNext7Days  TransferWindow = "next_7_days"
	WindowNext30Days TransferWindow = "next_30_days"
	WindowNext60Days TransferWindow = "next_60_days"
	WindowNext90Days TransferWindow = "next_90_days"
)

// OffsetDays returns the midpoint of the window in days from now.
func (w TransferWindow) OffsetDays() int {
	switch w {
	case WindowNext7Days:
		return 3
	case WindowNext30Days:
		return 15
	case WindowNext60Days:
		return 30
	case WindowNext90Days:
		return 45
	default:
		return 0
	}
}

// Describe renders the window for people.
func (w TransferWindow) Describe() string {
	switch w {
	case WindowNext7Days:
		return "within the next week"
	case WindowNext30Days:
		return "within the next month"
	case WindowNext60Days:
		return "within the next two months"
	case WindowNext90Days:
		return "within the next three months"
	default:
		return "right away"
	}
}

// MarketFactors explains the market side of a timing decision.
type MarketFactors struct {
	DemandTrend    float64 `json:"demandTrend"`
	SupplyTrend    float64 `json:"supplyTrend"`
	PriceTrend     float64 `json:"priceTrend"`
	SeasonalFactor float64 `json:"seasonalFactor"`
	AveragePrice   float64 `json:"averagePrice"`
	MarketVolume   float64 `json:"marketVolume"`
	Outlook        string  `json:"outlook"`
}

// UserFactors explains the behaviour side of a timing decision.
type UserFactors struct {
	UpgradeFrequency    UpgradeFrequency `json:"upgradeFrequency"`
	MarketplaceActivity int              `json:"marketplaceActivity"`
	BudgetConscious     bool             `json:"budgetConscious"`
	Note                string           `json:"note"`
}

// EnvironmentalFactors explains the device side of a timing decision.
type EnvironmentalFactors struct {
	DeviceAge    int          `json:"deviceAge"`
	Condition    Condition    `json:"condition"`
	UsagePattern UsagePattern `json:"usagePattern"`
	Note         string       `json:"note"`
}

// TimingAnalysis bundles the value projection with its explanatory factors.
type TimingAnalysis struct {
	CurrentValue         float64              `json:"currentValue"`
	ProjectedValue       float64              `json:"projectedValue"`
	ValueChangePercent   float64              `json:"valueChangePercent"`
	MarketFactors        MarketFactors        `json:"marketFactors"`
	UserFactors          UserFactors          `json:"userFactors"`
	EnvironmentalFactors EnvironmentalFactors `json:"environmentalFactors"`
}

// TransferTiming is the per-device act-now-or-wait recommendation.
type TransferTiming struct {
	DeviceID            string               `json:"deviceId"`
	Recommendation      TimingRecommendation `json:"recommendation"`
	Urgency             Urgency              `json:"urgency"`
	OptimalWindow       TransferWindow       `json:"optimalWindow"`
	OptimalTransferDate time.Time            `json:"optimalTransferDate"`
	Confidence          float64              `json:"confidence"`
	Reasoning           string               `json:"reasoning"`
	Analysis            TimingAnalysis       `json:"analysis"`
}
