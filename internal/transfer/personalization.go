package transfer

import (
	"sort"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// Priority orders personalization rules. Only high is hoisted; the rest keep
// their declaration order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

const genericPreference = "We picked this suggestion based on your device and current market conditions."

type personalizationRule struct {
	name     string
	priority Priority
	applies  func(domain.TransferSuggestion, PromptContext) bool
	message  string
	title    string
}

var personalizationRules = []personalizationRule{
	{
		name:     "charitable_history",
		priority: PriorityHigh,
		applies: func(s domain.TransferSuggestion, c PromptContext) bool {
			return s.SuggestionType == domain.SuggestionDonate && c.UserBehavior.CharitableGiving
		},
		message: "You've donated devices before. This one could help someone else too.",
		title:   "Continue Your Generosity",
	},
	{
		name:     "environmental",
		priority: PriorityHigh,
		applies: func(s domain.TransferSuggestion, c PromptContext) bool {
			if !c.UserBehavior.EnvironmentalConsciousness {
				return false
			}
			switch s.SuggestionType {
			case domain.SuggestionRecycle, domain.SuggestionDonate, domain.SuggestionRepair:
				return true
			}
			return false
		},
		message: "This choice keeps electronics out of landfill, in line with your environmental goals.",
	},
	{
		name:     "budget",
		priority: PriorityMedium,
		applies: func(s domain.TransferSuggestion, c PromptContext) bool {
			if !c.UserBehavior.BudgetConsciousness {
				return false
			}
			switch s.SuggestionType {
			case domain.SuggestionSell, domain.SuggestionUpgrade, domain.SuggestionRepair:
				return true
			}
			return false
		},
		message: "This option gets the most money out of your device.",
	},
	{
		name:     "morning",
		priority: PriorityLow,
		applies: func(_ domain.TransferSuggestion, c PromptContext) bool {
			return c.TimeOfDay == Morning
		},
		message: "A quick task to tick off this morning.",
	},
	{
		name:     "evening",
		priority: PriorityLow,
		applies: func(_ domain.TransferSuggestion, c PromptContext) bool {
			return c.TimeOfDay == Evening
		},
		message: "Take a few minutes this evening to plan your next step.",
	},
	{
		name:     "weekend",
		priority: PriorityMedium,
		applies: func(_ domain.TransferSuggestion, c PromptContext) bool {
			return c.IsWeekend()
		},
		message: "The weekend is a great time to get this done.",
	},
}

// applicableRules returns the matching rules with high priority first and
// declaration order otherwise.
func applicableRules(s domain.TransferSuggestion, c PromptContext) []personalizationRule {
	var matched []personalizationRule
	for _, r := range personalizationRules {
		if r.applies(s, c) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].priority == PriorityHigh && matched[j].priority != PriorityHigh
	})
	return matched
}
