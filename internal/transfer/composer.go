package transfer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

const morningPrefix = "Start your day with a positive impact! "

type promptTemplate struct {
	Title   string
	Message string
	Action  string
	Timing  domain.TransferWindow
}

var defaultTemplates = map[domain.SuggestionType]promptTemplate{
	domain.SuggestionUpgrade: {
		Title:   "Time for an Upgrade?",
		Message: "Your {deviceAge}-year-old {deviceName} could be worth {estimatedValue} as a trade-in toward a new {deviceType}.",
		Action:  "Explore Trade-In",
		Timing:  domain.WindowNext30Days,
	},
	domain.SuggestionDonate: {
		Title:   "Make a Difference",
		Message: "Your {deviceName} could help someone in {userLocation}. Donating it passes on {estimatedValue} of working technology.",
		Action:  "Find a Charity",
		Timing:  domain.WindowNext7Days,
	},
	domain.SuggestionSell: {
		Title:   "Sell While Demand Is High",
		Message: "Buyers in {userLocation} are looking for a {deviceType} like your {deviceName}. It could sell for {estimatedValue}.",
		Action:  "List for Sale",
		Timing:  domain.WindowImmediate,
	},
	domain.SuggestionGift: {
		Title:   "Share the Joy",
		Message: "Your {deviceName} is in excellent shape. Gifting it to someone close gives {estimatedValue} of value a new home.",
		Action:  "Start Gift Transfer",
		Timing:  domain.WindowNext60Days,
	},
	domain.SuggestionRecycle: {
		Title:   "Recycle Responsibly",
		Message: "Your {deviceAge}-year-old {deviceName} has reached the end of the road. Find a certified recycler near {userLocation}.",
		Action:  "Find a Recycler",
		Timing:  domain.WindowNext7Days,
	},
	domain.SuggestionRepair: {
		Title:   "Give It a Second Life",
		Message: "A repair could restore your {deviceName} and keep {estimatedValue} of value in your pocket.",
		Action:  "Book a Repair",
		Timing:  domain.WindowImmediate,
	},
}

// Composer turns suggestions into user-facing prompts. The zero value is not
// usable; call NewComposer.
type Composer struct {
	templates map[domain.SuggestionType]promptTemplate
}

// NewComposer returns a composer with the built-in template table.
func NewComposer() *Composer {
	templates := make(map[domain.SuggestionType]promptTemplate, len(defaultTemplates))
	for k, v := range defaultTemplates {
		templates[k] = v
	}
	return &Composer{templates: templates}
}

// Compose renders the prompt for s under the given context. It never fails;
// unknown suggestion types fall back to the upgrade template.
func (c *Composer) Compose(s domain.TransferSuggestion, pc PromptContext) domain.TransferPrompt {
	tpl, ok := c.templates[s.SuggestionType]
	if !ok {
		tpl = c.templates[domain.SuggestionUpgrade]
	}

	r := placeholderReplacer(s, pc)
	title := r.Replace(tpl.Title)
	message := r.Replace(tpl.Message)

	preference := genericPreference
	if matched := applicableRules(s, pc); len(matched) > 0 {
		top := matched[0]
		preference = top.message
		if top.title != "" {
			title = top.title
		}
	}

	if pc.TimeOfDay == Morning {
		message = morningPrefix + message
	}

	secondary := "Maybe Later"
	if s.Urgency == domain.UrgencyHigh {
		secondary = "Learn More"
	}

	return domain.TransferPrompt{
		ID:             fmt.Sprintf("prompt-%s-%s", s.DeviceID, s.SuggestionType),
		DeviceID:       s.DeviceID,
		SuggestionType: s.SuggestionType,
		Title:          title,
		Message:        message,
		Urgency:        s.Urgency,
		EstimatedValue: s.EstimatedValue,
		OptimalTiming:  tpl.Timing,
		Personalization: domain.Personalization{
			UserPreference:  preference,
			Timing:          timingNote(tpl.Timing, pc),
			Location:        locationNote(pc.Location),
			MarketCondition: marketNote(s, pc),
		},
		CallToAction: domain.CallToAction{
			Primary:   tpl.Action,
			Secondary: secondary,
			Dismiss:   "Not Now",
		},
	}
}

func placeholderReplacer(s domain.TransferSuggestion, pc PromptContext) *strings.Replacer {
	location := pc.Location
	if location == "" {
		location = "your area"
	}
	value := "its current value"
	if s.EstimatedValue != nil {
		value = formatCurrency(*s.EstimatedValue)
	}
	return strings.NewReplacer(
		"{deviceName}", pc.Device.DisplayName(),
		"{deviceAge}", strconv.Itoa(pc.Device.Age),
		"{deviceType}", string(pc.Device.Category),
		"{userLocation}", location,
		"{estimatedValue}", value,
	)
}

func formatCurrency(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 0, 64)
}

func timingNote(w domain.TransferWindow, pc PromptContext) string {
	note := "Best acted on " + w.Describe() + "."
	if pc.Season == Winter && w != domain.WindowImmediate {
		note += " Holiday demand lifts prices this season."
	}
	return note
}

func locationNote(location string) string {
	if location == "" {
		return "Options are available nationwide."
	}
	return "Options available near " + location + "."
}

func marketNote(s domain.TransferSuggestion, pc PromptContext) string {
	if pc.Market != nil {
		return describeMarketTrend(*pc.Market)
	}
	if s.MarketTrend != "" {
		return s.MarketTrend
	}
	return "Market conditions are steady."
}
