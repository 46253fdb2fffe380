package transfer

import (
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// TimeOfDay buckets the local hour.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// Season is a northern-hemisphere meteorological season.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// PromptContext is the situational input to prompt composition.
type PromptContext struct {
	Device       domain.DeviceAnalysis `json:"device"`
	UserBehavior domain.UserBehavior   `json:"userBehavior"`
	Market       *domain.MarketData    `json:"market,omitempty"`
	TimeOfDay    TimeOfDay             `json:"timeOfDay"`
	DayOfWeek    time.Weekday          `json:"dayOfWeek"`
	Season       Season                `json:"season"`
	Location     string                `json:"location,omitempty"`
}

// NewPromptContext derives the time fields from now. Location defaults to the
// one recorded on the behaviour profile.
func NewPromptContext(device domain.DeviceAnalysis, behavior domain.UserBehavior, now time.Time) PromptContext {
	return PromptContext{
		Device:       device,
		UserBehavior: behavior,
		TimeOfDay:    TimeOfDayAt(now),
		DayOfWeek:    now.Weekday(),
		Season:       SeasonAt(now),
		Location:     behavior.Location,
	}
}

// IsWeekend reports whether the context falls on Saturday or Sunday.
func (c PromptContext) IsWeekend() bool {
	return c.DayOfWeek == time.Saturday || c.DayOfWeek == time.Sunday
}

// TimeOfDayAt buckets the hour of t.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 21:
		return Evening
	default:
		return Night
	}
}

// SeasonAt maps the month of t onto a season.
func SeasonAt(t time.Time) Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return Spring
	case time.June, time.July, time.August:
		return Summer
	case time.September, time.October, time.November:
		return Autumn
	default:
		return Winter
	}
}
