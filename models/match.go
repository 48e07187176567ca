package models

import "time"

// Match is an append-only result record. For draws WinnerID and LoserID are
// just the two participants in the order they were reported.
type Match struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	WinnerID     int       `json:"winner_id" db:"winner_id"`
	LoserID      int       `json:"loser_id" db:"loser_id"`
	IsDraw       bool      `json:"is_draw" db:"is_draw"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

const (
	WinPoints  = 1.0
	DrawPoints = 0.5
	LossPoints = 0.0
	ByePoints  = WinPoints
)
