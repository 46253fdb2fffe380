package transfer

import (
	"sort"

	"github.com/kudzimusar/stolen-app-lovable-sub001/internal/domain"
)

// MinConfidence is the threshold a suggestion must exceed to be ranked.
const MinConfidence = 0.6

var urgencyWeights = map[domain.Urgency]float64{
	domain.UrgencyLow:    1,
	domain.UrgencyMedium: 2,
	domain.UrgencyHigh:   3,
}

// UrgencyWeight maps an urgency onto its ranking multiplier. Unknown values weigh 1.
func UrgencyWeight(u domain.Urgency) float64 {
	if w, ok := urgencyWeights[u]; ok {
		return w
	}
	return 1
}

// Score is the ranking key: confidence × urgency weight.
func Score(s domain.TransferSuggestion) float64 {
	return s.Confidence * UrgencyWeight(s.Urgency)
}

// Rank drops suggestions at or below MinConfidence and orders the rest by
// descending score. Equal scores keep their input order. The input slice is
// left untouched.
func Rank(suggestions []domain.TransferSuggestion) []domain.TransferSuggestion {
	ranked := make([]domain.TransferSuggestion, 0, len(suggestions))
	for _, s := range suggestions {
		if s.Confidence > MinConfidence {
			ranked = append(ranked, s)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i]) > Score(ranked[j])
	})
	return ranked
}
