package brackets

import (
	"sort"

	"github.com/Dosada05/swiss-tournament/models"
)

// SortStandings orders standings for pairing: score descending, then
// opponent strength ascending, then name, then id.
func SortStandings(standings []*models.Standing) {
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.OpponentStrength != b.OpponentStrength {
			return a.OpponentStrength < b.OpponentStrength
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
