package brackets

import (
	"context"

	"github.com/Dosada05/swiss-tournament/models"
)

// Entrant is a player as seen by a round generator.
type Entrant struct {
	ID        int
	Name      string
	Score     float64
	Opponents []int
	HasBye    bool
}

func (e Entrant) hasPlayed(opponentID int) bool {
	for _, id := range e.Opponents {
		if id == opponentID {
			return true
		}
	}
	return false
}

type GenerateRoundParams struct {
	TournamentID int
	// Entrants must already be in standings order.
	Entrants []Entrant
}

type RoundGenerator interface {
	GenerateRound(ctx context.Context, params GenerateRoundParams) (*models.Round, error)

	GetName() string
}
