package models

// Player is a registered tournament entrant.
type Player struct {
	ID               int     `json:"id" db:"id"`
	TournamentID     int     `json:"tournament_id" db:"tournament_id"`
	Name             string  `json:"name" db:"name"`
	Score            float64 `json:"score" db:"points"`
	MatchesPlayed    int     `json:"matches_played" db:"matches_played"`
	Opponents        []int   `json:"opponents" db:"prev_opponents"`
	HasBye           bool    `json:"has_bye" db:"bye"`
	OpponentStrength float64 `json:"opponent_strength" db:"opp_strength"` // valid after rankings were computed
}

// HasPlayed reports whether opponentID is in the player's opponent history.
func (p *Player) HasPlayed(opponentID int) bool {
	for _, id := range p.Opponents {
		if id == opponentID {
			return true
		}
	}
	return false
}
