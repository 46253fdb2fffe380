package transfer

import (
	"strings"
	"testing"
	"time"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

var (
	wednesdayAfternoon = time.Date(2026, time.October, 14, 14, 0, 0, 0, time.UTC)
	wednesdayMorning   = time.Date(2026, time.October, 14, 8, 0, 0, 0, time.UTC)
	saturdayAfternoon  = time.Date(2026, time.October, 17, 15, 0, 0, 0, time.UTC)
)

func iphone(age int) domain.DeviceAnalysis {
	return domain.DeviceAnalysis{
		DeviceID: "dev-1",
		Category: domain.CategorySmartphone,
		Brand:    "Apple",
		Model:    "iPhone 12",
		Age:      age,
	}
}

func TestComposeDonateForCharitableUser(t *testing.T) {
	behavior := domain.UserBehavior{CharitableGiving: true, Location: "Durban"}
	s := domain.TransferSuggestion{
		DeviceID:       "dev-1",
		SuggestionType: domain.SuggestionDonate,
		Confidence:     0.85,
		Urgency:        domain.UrgencyLow,
		EstimatedValue: floatPtr(120),
	}

	p := NewComposer().Compose(s, NewPromptContext(iphone(6), behavior, wednesdayAfternoon))
	if p.Title != "Continue Your Generosity" {
		t.Fatalf("expected personalised title, got %q", p.Title)
	}
	if !strings.Contains(p.Personalization.UserPreference, "donated devices before") {
		t.Fatalf("expected charitable preference, got %q", p.Personalization.UserPreference)
	}
	want := "Your Apple iPhone 12 could help someone in Durban. Donating it passes on $120 of working technology."
	if p.Message != want {
		t.Fatalf("unexpected message\n got: %q\nwant: %q", p.Message, want)
	}
	if p.OptimalTiming != domain.WindowNext7Days {
		t.Fatalf("expected next_7_days, got %s", p.OptimalTiming)
	}
	if p.ID != "prompt-dev-1-donate" {
		t.Fatalf("unexpected id %q", p.ID)
	}
}

func TestComposeDonateWithoutHistoryKeepsTemplateTitle(t *testing.T) {
	s := domain.TransferSuggestion{DeviceID: "dev-1", SuggestionType: domain.SuggestionDonate, Urgency: domain.UrgencyLow}
	p := NewComposer().Compose(s, NewPromptContext(iphone(6), domain.UserBehavior{}, wednesdayAfternoon))
	if p.Title != "Make a Difference" {
		t.Fatalf("expected template title, got %q", p.Title)
	}
	if p.Personalization.UserPreference != genericPreference {
		t.Fatalf("expected generic preference, got %q", p.Personalization.UserPreference)
	}
	if !strings.Contains(p.Message, "its current value") {
		t.Fatalf("expected placeholder for missing value, got %q", p.Message)
	}
	if !strings.Contains(p.Message, "your area") {
		t.Fatalf("expected default location, got %q", p.Message)
	}
}

func TestComposeSubstitutesUpgradePlaceholders(t *testing.T) {
	s := domain.TransferSuggestion{DeviceID: "dev-1", SuggestionType: domain.SuggestionUpgrade, Urgency: domain.UrgencyHigh, EstimatedValue: floatPtr(157)}
	p := NewComposer().Compose(s, NewPromptContext(iphone(4), domain.UserBehavior{}, wednesdayAfternoon))

	want := "Your 4-year-old Apple iPhone 12 could be worth $157 as a trade-in toward a new smartphone."
	if p.Message != want {
		t.Fatalf("unexpected message\n got: %q\nwant: %q", p.Message, want)
	}
	if p.CallToAction != (domain.CallToAction{Primary: "Explore Trade-In", Secondary: "Learn More", Dismiss: "Not Now"}) {
		t.Fatalf("unexpected call to action %+v", p.CallToAction)
	}
}

func TestComposeSecondaryActionForNonHighUrgency(t *testing.T) {
	s := domain.TransferSuggestion{SuggestionType: domain.SuggestionRecycle, Urgency: domain.UrgencyMedium}
	p := NewComposer().Compose(s, NewPromptContext(iphone(9), domain.UserBehavior{}, wednesdayAfternoon))
	if p.CallToAction.Secondary != "Maybe Later" || p.CallToAction.Dismiss != "Not Now" {
		t.Fatalf("unexpected call to action %+v", p.CallToAction)
	}
}

func TestComposeMorningPrefixDoesNotAccumulate(t *testing.T) {
	c := NewComposer()
	s := domain.TransferSuggestion{DeviceID: "dev-1", SuggestionType: domain.SuggestionSell, Urgency: domain.UrgencyMedium, EstimatedValue: floatPtr(400)}
	pc := NewPromptContext(iphone(2), domain.UserBehavior{}, wednesdayMorning)

	first := c.Compose(s, pc)
	second := c.Compose(s, pc)
	if !strings.HasPrefix(first.Message, morningPrefix) {
		t.Fatalf("expected morning framing, got %q", first.Message)
	}
	if first.Message != second.Message {
		t.Fatalf("repeated composition changed the message:\n%q\n%q", first.Message, second.Message)
	}
	if strings.Count(second.Message, morningPrefix) != 1 {
		t.Fatalf("morning prefix applied more than once: %q", second.Message)
	}
	if defaultTemplates[domain.SuggestionSell].Message != c.templates[domain.SuggestionSell].Message {
		t.Fatalf("template table was modified")
	}
	if first.Personalization.UserPreference != "A quick task to tick off this morning." {
		t.Fatalf("expected morning preference, got %q", first.Personalization.UserPreference)
	}
}

func TestComposePersonalizationPriority(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.SuggestionType
		behavior domain.UserBehavior
		now      time.Time
		want     string
	}{
		{
			name:     "environmental beats budget for repair",
			kind:     domain.SuggestionRepair,
			behavior: domain.UserBehavior{EnvironmentalConsciousness: true, BudgetConsciousness: true},
			now:      saturdayAfternoon,
			want:     "in line with your environmental goals",
		},
		{
			name:     "budget declared before weekend",
			kind:     domain.SuggestionSell,
			behavior: domain.UserBehavior{BudgetConsciousness: true},
			now:      saturdayAfternoon,
			want:     "most money",
		},
		{
			name:     "weekend when nothing else applies",
			kind:     domain.SuggestionGift,
			behavior: domain.UserBehavior{BudgetConsciousness: true},
			now:      saturdayAfternoon,
			want:     "weekend",
		},
		{
			name:     "environmental ignored for sell",
			kind:     domain.SuggestionSell,
			behavior: domain.UserBehavior{EnvironmentalConsciousness: true},
			now:      wednesdayAfternoon,
			want:     genericPreference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := domain.TransferSuggestion{SuggestionType: tt.kind, Urgency: domain.UrgencyMedium}
			p := NewComposer().Compose(s, NewPromptContext(iphone(2), tt.behavior, tt.now))
			if !strings.Contains(p.Personalization.UserPreference, tt.want) {
				t.Fatalf("expected preference containing %q, got %q", tt.want, p.Personalization.UserPreference)
			}
		})
	}
}

func TestPromptContextDerivation(t *testing.T) {
	tests := []struct {
		at     time.Time
		tod    TimeOfDay
		season Season
	}{
		{time.Date(2026, time.January, 5, 5, 0, 0, 0, time.UTC), Morning, Winter},
		{time.Date(2026, time.April, 5, 12, 0, 0, 0, time.UTC), Afternoon, Spring},
		{time.Date(2026, time.July, 5, 17, 30, 0, 0, time.UTC), Evening, Summer},
		{time.Date(2026, time.October, 5, 21, 0, 0, 0, time.UTC), Night, Autumn},
		{time.Date(2026, time.December, 5, 2, 0, 0, 0, time.UTC), Night, Winter},
	}

	for _, tt := range tests {
		if got := TimeOfDayAt(tt.at); got != tt.tod {
			t.Errorf("TimeOfDayAt(%s) = %s, want %s", tt.at, got, tt.tod)
		}
		if got := SeasonAt(tt.at); got != tt.season {
			t.Errorf("SeasonAt(%s) = %s, want %s", tt.at, got, tt.season)
		}
	}

	pc := NewPromptContext(iphone(1), domain.UserBehavior{Location: "Harare"}, saturdayAfternoon)
	if !pc.IsWeekend() || pc.Location != "Harare" {
		t.Fatalf("unexpected context %+v", pc)
	}
}
