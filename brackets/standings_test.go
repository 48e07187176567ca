package brackets

import (
	"testing"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/stretchr/testify/assert"
)

func TestSortStandings(t *testing.T) {
	standings := []*models.Standing{
		{ID: 1, Name: "Dee", Score: 1, OpponentStrength: 2},
		{ID: 2, Name: "Eve", Score: 2},
		{ID: 3, Name: "Ann", Score: 1, OpponentStrength: 0.5},
		{ID: 4, Name: "Bob", Score: 1, OpponentStrength: 0.5},
		{ID: 5, Name: "Ann", Score: 1, OpponentStrength: 0.5},
		{ID: 6, Name: "Fay", Score: 0},
	}

	SortStandings(standings)

	ids := make([]int, len(standings))
	for i, s := range standings {
		ids[i] = s.ID
	}
	assert.Equal(t, []int{2, 3, 5, 4, 1, 6}, ids)
}
