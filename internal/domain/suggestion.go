package domain

// SuggestionType is the recommended disposition for a device.
type SuggestionType string

const (
	SuggestionUpgrade SuggestionType = "upgrade"
	SuggestionDonate  SuggestionType = "donate"
	SuggestionSell    SuggestionType = "sell"
	SuggestionGift    SuggestionType = "gift"
	SuggestionRecycle SuggestionType = "recycle"
	SuggestionRepair  SuggestionType = "repair"
)

// Urgency is a coarse priority used for ordering and phrasing.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// TransferSuggestion is produced once per device by the rule table and is
// never modified afterwards.
type TransferSuggestion struct {
	DeviceID            string         `json:"deviceId" validate:"required"`
	SuggestionType      SuggestionType `json:"suggestionType" validate:"required,oneof=upgrade donate sell gift recycle repair"`
	Confidence          float64        `json:"confidence" validate:"gte=0,lte=1"`
	Reasoning           string         `json:"reasoning"`
	EstimatedValue      *float64       `json:"estimatedValue,omitempty"`
	RecommendedAction   string         `json:"recommendedAction"`
	Urgency             Urgency        `json:"urgency" validate:"required,oneof=low medium high"`
	OptimalTiming       string         `json:"optimalTiming,omitempty"`
	MarketTrend         string         `json:"marketTrend,omitempty"`
	EnvironmentalImpact string         `json:"environmentalImpact,omitempty"`
	TaxBenefits         string         `json:"taxBenefits,omitempty"`
}

// Personalization carries the advisory strings layered on top of a prompt template.
type Personalization struct {
	UserPreference  string `json:"userPreference"`
	Timing          string `json:"timing"`
	Location        string `json:"location"`
	MarketCondition string `json:"marketCondition"`
}

// CallToAction holds the button labels shown with a prompt.
type CallToAction struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Dismiss   string `json:"dismiss"`
}

// TransferPrompt is the display-only projection of a suggestion.
type TransferPrompt struct {
	ID              string          `json:"id"`
	DeviceID        string          `json:"deviceId"`
	SuggestionType  SuggestionType  `json:"suggestionType"`
	Title           string          `json:"title"`
	Message         string          `json:"message"`
	Urgency         Urgency         `json:"urgency"`
	EstimatedValue  *float64        `json:"estimatedValue,omitempty"`
	OptimalTiming   TransferWindow  `json:"optimalTiming"`
	Personalization Personalization `json:"personalization"`
	CallToAction    CallToAction    `json:"callToAction"`
}
