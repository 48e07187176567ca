package models

// Standing is one row of the current standings table.
type Standing struct {
	ID               int     `json:"id" db:"player_id"`
	Name             string  `json:"name" db:"name"`
	Score            float64 `json:"score" db:"points"`
	MatchesPlayed    int     `json:"matches_played" db:"matches_played"`
	OpponentStrength float64 `json:"opponent_strength" db:"opp_strength"`
}

// FinalStanding is a standings row once opponent strength has been computed.
type FinalStanding struct {
	PlayerID         int     `json:"player_id" db:"player_id"`
	Name             string  `json:"name" db:"name"`
	Score            float64 `json:"score" db:"points"`
	OpponentStrength float64 `json:"opponent_strength" db:"opp_strength"`
}

// Ranking is a final standing with its competition rank.
type Ranking struct {
	Rank             int     `json:"rank"`
	PlayerID         int     `json:"player_id"`
	Name             string  `json:"name"`
	Score            float64 `json:"score"`
	OpponentStrength float64 `json:"opponent_strength"`
}
