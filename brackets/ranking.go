package brackets

import (
	"sort"

	"github.com/Dosada05/swiss-tournament/models"
)

// OpponentStrength is the mean current score of a player's opponents.
// A player without opponents gets 0. Opponents missing from scores count as 0.
func OpponentStrength(opponents []int, scores map[int]float64) float64 {
	if len(opponents) == 0 {
		return 0
	}
	var sum float64
	for _, id := range opponents {
		sum += scores[id]
	}
	return sum / float64(len(opponents))
}

// SortFinalStandings orders by score desc, opponent strength desc, name, id.
func SortFinalStandings(rows []*models.FinalStanding) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.OpponentStrength != b.OpponentStrength {
			return a.OpponentStrength > b.OpponentStrength
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.PlayerID < b.PlayerID
	})
}

// AssignRanks applies competition ranking ("1224") to rows that are already
// in final order. Rows with equal score and opponent strength share a rank.
func AssignRanks(rows []*models.FinalStanding) []models.Ranking {
	rankings := make([]models.Ranking, 0, len(rows))
	rank := 0
	for i, row := range rows {
		if i == 0 || !sameRecord(rows[i-1], row) {
			rank = i + 1
		}
		rankings = append(rankings, models.Ranking{
			Rank:             rank,
			PlayerID:         row.PlayerID,
			Name:             row.Name,
			Score:            row.Score,
			OpponentStrength: row.OpponentStrength,
		})
	}
	return rankings
}

func sameRecord(a, b *models.FinalStanding) bool {
	return a.Score == b.Score && a.OpponentStrength == b.OpponentStrength
}
