package leaderboard

import (
	"cmp"
	"slices"

	"github.com/victornm/quizflow/internal/domain"
)

// Rank returns the participants sorted by score in descending order.
// Participants with equal scores keep their join order.
func Rank(participants []domain.Participant) []domain.Participant {
	ranked := slices.Clone(participants)
	if ranked == nil {
		ranked = []domain.Participant{}
	}

	slices.SortStableFunc(ranked, func(a, b domain.Participant) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return ranked
}
