package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/swiss-tournament/models"
)

// RankingsDocument is the published form of a tournament's final rankings.
type RankingsDocument struct {
	TournamentID int              `json:"tournament_id"`
	Tournament   string           `json:"tournament"`
	GeneratedAt  time.Time        `json:"generated_at"`
	Rankings     []models.Ranking `json:"rankings"`
}

type RankingsExporter struct {
	uploader FileUploader
	now      func() time.Time
}

func NewRankingsExporter(uploader FileUploader) *RankingsExporter {
	return &RankingsExporter{uploader: uploader, now: time.Now}
}

func RankingsKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/final-rankings.json", tournamentID)
}

// Export uploads the rankings as JSON and returns their public URL.
func (e *RankingsExporter) Export(ctx context.Context, tournament *models.Tournament, rankings []models.Ranking) (string, error) {
	doc := RankingsDocument{
		TournamentID: tournament.ID,
		Tournament:   tournament.Name,
		GeneratedAt:  e.now().UTC(),
		Rankings:     rankings,
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode rankings for tournament %d: %w", tournament.ID, err)
	}

	res, err := e.uploader.Upload(ctx, RankingsKey(tournament.ID), "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return res.Location, nil
}
