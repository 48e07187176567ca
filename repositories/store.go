package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
)

// Store is everything the tournament engine needs from storage. Every write
// is committed before the call returns; ApplyMatchResult updates both players
// and inserts the match record atomically.
type Store interface {
	CreateTournament(ctx context.Context, id int, name string) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	DeleteAllMatches(ctx context.Context, tournamentID int) error
	DeleteAllPlayers(ctx context.Context, tournamentID int) error
	CountPlayers(ctx context.Context, tournamentID int) (int, error)
	RegisterPlayer(ctx context.Context, name string, tournamentID int) (*models.Player, error)
	GetPlayer(ctx context.Context, playerID int) (*models.Player, error)
	FetchStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error)
	FetchOpponentHistory(ctx context.Context, playerID int) ([]int, error)
	FetchByeFlag(ctx context.Context, playerID int) (bool, error)
	ApplyMatchResult(ctx context.Context, winnerID, loserID, tournamentID int, isDraw bool) (*models.Match, error)
	AssignBye(ctx context.Context, playerID, tournamentID int) error
	FetchPlayerScore(ctx context.Context, playerID int) (float64, error)
	UpdateOpponentStrength(ctx context.Context, playerID int, value float64) error
	FetchFinalStandings(ctx context.Context, tournamentID int) ([]*models.FinalStanding, error)
	ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error)
}

type postgresStore struct {
	db          *sql.DB
	tournaments TournamentRepository
	players     PlayerRepository
	matches     MatchRepository
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{
		db:          db,
		tournaments: NewPostgresTournamentRepository(db),
		players:     NewPostgresPlayerRepository(db),
		matches:     NewPostgresMatchRepository(db),
	}
}

func (s *postgresStore) CreateTournament(ctx context.Context, id int, name string) (*models.Tournament, error) {
	t := &models.Tournament{ID: id, Name: name}
	if err := s.tournaments.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *postgresStore) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	return s.tournaments.GetByID(ctx, id)
}

func (s *postgresStore) DeleteAllMatches(ctx context.Context, tournamentID int) error {
	return s.matches.DeleteByTournamentID(ctx, nil, tournamentID)
}

func (s *postgresStore) DeleteAllPlayers(ctx context.Context, tournamentID int) error {
	return s.players.DeleteByTournamentID(ctx, nil, tournamentID)
}

func (s *postgresStore) CountPlayers(ctx context.Context, tournamentID int) (int, error) {
	return s.players.CountByTournament(ctx, tournamentID)
}

func (s *postgresStore) RegisterPlayer(ctx context.Context, name string, tournamentID int) (*models.Player, error) {
	p := &models.Player{Name: name, TournamentID: tournamentID}
	if err := s.players.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *postgresStore) GetPlayer(ctx context.Context, playerID int) (*models.Player, error) {
	return s.players.GetByID(ctx, playerID)
}

func (s *postgresStore) FetchStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	return s.players.ListStandings(ctx, tournamentID)
}

func (s *postgresStore) FetchOpponentHistory(ctx context.Context, playerID int) ([]int, error) {
	return s.players.GetOpponents(ctx, playerID)
}

func (s *postgresStore) FetchByeFlag(ctx context.Context, playerID int) (bool, error) {
	return s.players.GetByeFlag(ctx, playerID)
}

func (s *postgresStore) ApplyMatchResult(ctx context.Context, winnerID, loserID, tournamentID int, isDraw bool) (*models.Match, error) {
	winnerPoints, loserPoints := models.WinPoints, models.LossPoints
	if isDraw {
		winnerPoints, loserPoints = models.DrawPoints, models.DrawPoints
	}
	match := &models.Match{
		TournamentID: tournamentID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		IsDraw:       isDraw,
	}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.players.ApplyResult(ctx, tx, winnerID, tournamentID, loserID, winnerPoints); err != nil {
			return err
		}
		if err := s.players.ApplyResult(ctx, tx, loserID, tournamentID, winnerID, loserPoints); err != nil {
			return err
		}
		return s.matches.Create(ctx, tx, match)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply match result %d vs %d: %w", winnerID, loserID, err)
	}
	return match, nil
}

func (s *postgresStore) AssignBye(ctx context.Context, playerID, tournamentID int) error {
	return s.players.AssignBye(ctx, nil, playerID, tournamentID)
}

func (s *postgresStore) FetchPlayerScore(ctx context.Context, playerID int) (float64, error) {
	return s.players.GetScore(ctx, playerID)
}

func (s *postgresStore) UpdateOpponentStrength(ctx context.Context, playerID int, value float64) error {
	return s.players.UpdateOpponentStrength(ctx, nil, playerID, value)
}

func (s *postgresStore) FetchFinalStandings(ctx context.Context, tournamentID int) ([]*models.FinalStanding, error) {
	return s.players.ListFinalStandings(ctx, tournamentID)
}

func (s *postgresStore) ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	return s.matches.ListByTournament(ctx, tournamentID)
}
