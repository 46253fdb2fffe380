package transfer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

func suggestion(id string, confidence float64, urgency domain.Urgency) domain.TransferSuggestion {
	return domain.TransferSuggestion{DeviceID: id, SuggestionType: domain.SuggestionSell, Confidence: confidence, Urgency: urgency}
}

func ids(suggestions []domain.TransferSuggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.DeviceID
	}
	return out
}

func TestRankFiltersAndOrders(t *testing.T) {
	input := []domain.TransferSuggestion{
		suggestion("a", 0.9, domain.UrgencyLow),
		suggestion("b", 0.8, domain.UrgencyMedium),
		suggestion("dropped", 0.6, domain.UrgencyHigh),
		suggestion("c", 0.85, domain.UrgencyLow),
		suggestion("d", 0.8, domain.UrgencyMedium),
		suggestion("e", 0.75, domain.UrgencyHigh),
	}

	got := ids(Rank(input))
	want := []string{"e", "b", "d", "a", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestRankIsIdempotent(t *testing.T) {
	input := []domain.TransferSuggestion{
		suggestion("a", 0.75, domain.UrgencyLow),
		suggestion("b", 0.9, domain.UrgencyMedium),
		suggestion("c", 0.75, domain.UrgencyLow),
		suggestion("d", 0.61, domain.UrgencyHigh),
	}

	once := Rank(input)
	twice := Rank(once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("re-ranking changed the order (-once +twice):\n%s", diff)
	}
	for _, s := range twice {
		if s.Confidence <= MinConfidence {
			t.Fatalf("ranked output contains low-confidence suggestion %+v", s)
		}
	}
}

func TestRankLeavesInputUntouched(t *testing.T) {
	input := []domain.TransferSuggestion{
		suggestion("low", 0.7, domain.UrgencyLow),
		suggestion("high", 0.7, domain.UrgencyHigh),
	}
	before := append([]domain.TransferSuggestion(nil), input...)

	_ = Rank(input)
	if diff := cmp.Diff(before, input); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
}
