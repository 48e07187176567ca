package models

// Pairing is one board of a round. Rematch is set when the pairing engine had
// to pair two players who already met.
type Pairing struct {
	Player1ID   int    `json:"player1_id"`
	Player1Name string `json:"player1_name"`
	Player2ID   int    `json:"player2_id"`
	Player2Name string `json:"player2_name"`
	Rematch     bool   `json:"rematch,omitempty"`
}

// ByeAssignment names the player sitting out an odd-sized round.
// Repeat is set when every player had already received a bye.
type ByeAssignment struct {
	PlayerID   int    `json:"player_id"`
	PlayerName string `json:"player_name"`
	Repeat     bool   `json:"repeat,omitempty"`
}

type Round struct {
	TournamentID int            `json:"tournament_id"`
	Pairings     []Pairing      `json:"pairings"`
	Bye          *ByeAssignment `json:"bye,omitempty"`
}
