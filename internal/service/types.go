package service

import (
	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// Evaluation is the full outcome of running the rule table over one device.
// Suggestion is nil when no rule matched.
type Evaluation struct {
	Analysis   domain.DeviceAnalysis      `json:"analysis"`
	Behavior   domain.UserBehavior        `json:"behavior"`
	Market     domain.MarketData          `json:"market"`
	Suggestion *domain.TransferSuggestion `json:"suggestion"`
}

// DeviceReport bundles everything the engine can say about a single device.
type DeviceReport struct {
	Analysis   domain.DeviceAnalysis      `json:"analysis"`
	Suggestion *domain.TransferSuggestion `json:"suggestion"`
	Prompt     *domain.TransferPrompt     `json:"prompt,omitempty"`
	Timing     domain.TransferTiming      `json:"timing"`
}

// UserReport is the per-user output of the offline evaluator.
type UserReport struct {
	UserID      string                      `json:"userId"`
	Behavior    domain.UserBehavior         `json:"behavior"`
	Suggestions []domain.TransferSuggestion `json:"suggestions"`
	Devices     []DeviceReport              `json:"devices"`
}
