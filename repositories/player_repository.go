package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound          = errors.New("player not found")
	ErrPlayerConflict          = errors.New("player conflict: name already registered for this tournament")
	ErrPlayerTournamentInvalid = errors.New("player tournament conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	ListStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error)
	ListFinalStandings(ctx context.Context, tournamentID int) ([]*models.FinalStanding, error)
	GetOpponents(ctx context.Context, playerID int) ([]int, error)
	GetByeFlag(ctx context.Context, playerID int) (bool, error)
	GetScore(ctx context.Context, playerID int) (float64, error)
	ApplyResult(ctx context.Context, exec SQLExecutor, playerID, tournamentID, opponentID int, points float64) error
	AssignBye(ctx context.Context, exec SQLExecutor, playerID, tournamentID int) error
	UpdateOpponentStrength(ctx context.Context, exec SQLExecutor, playerID int, value float64) error
	DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.Player) error {
	query := `
		INSERT INTO players (name, tournament_id, prev_opponents)
		VALUES ($1, $2, '{}')
		RETURNING id, points, matches_played, bye, opp_strength`

	err := r.db.QueryRowContext(ctx, query, p.Name, p.TournamentID).
		Scan(&p.ID, &p.Score, &p.MatchesPlayed, &p.HasBye, &p.OpponentStrength)
	if err != nil {
		return r.handlePlayerError(err)
	}
	p.Opponents = []int{}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT id, tournament_id, name, points, matches_played, prev_opponents, bye, opp_strength
		FROM players
		WHERE id = $1`

	var (
		p         models.Player
		opponents pq.Int64Array
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.TournamentID, &p.Name, &p.Score, &p.MatchesPlayed,
		&opponents, &p.HasBye, &p.OpponentStrength,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %d: %w", id, err)
	}
	p.Opponents = toIntSlice(opponents)
	return &p, nil
}

func (r *postgresPlayerRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count players for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

// ListStandings matches the ordering of brackets.SortStandings.
func (r *postgresPlayerRepository) ListStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	query := `
		SELECT id, name, points, matches_played, opp_strength
		FROM players
		WHERE tournament_id = $1
		ORDER BY points DESC, opp_strength ASC, name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		var s models.Standing
		if scanErr := rows.Scan(&s.ID, &s.Name, &s.Score, &s.MatchesPlayed, &s.OpponentStrength); scanErr != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", scanErr)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during standings rows iteration: %w", err)
	}
	return standings, nil
}

func (r *postgresPlayerRepository) ListFinalStandings(ctx context.Context, tournamentID int) ([]*models.FinalStanding, error) {
	query := `
		SELECT id, name, points, opp_strength
		FROM players
		WHERE tournament_id = $1
		ORDER BY points DESC, opp_strength DESC, name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query final standings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	standings := make([]*models.FinalStanding, 0)
	for rows.Next() {
		var s models.FinalStanding
		if scanErr := rows.Scan(&s.PlayerID, &s.Name, &s.Score, &s.OpponentStrength); scanErr != nil {
			return nil, fmt.Errorf("failed to scan final standing row: %w", scanErr)
		}
		standings = append(standings, &s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during final standings rows iteration: %w", err)
	}
	return standings, nil
}

func (r *postgresPlayerRepository) GetOpponents(ctx context.Context, playerID int) ([]int, error) {
	var opponents pq.Int64Array
	err := r.db.QueryRowContext(ctx, `SELECT prev_opponents FROM players WHERE id = $1`, playerID).Scan(&opponents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get opponents of player %d: %w", playerID, err)
	}
	return toIntSlice(opponents), nil
}

func (r *postgresPlayerRepository) GetByeFlag(ctx context.Context, playerID int) (bool, error) {
	var bye bool
	err := r.db.QueryRowContext(ctx, `SELECT bye FROM players WHERE id = $1`, playerID).Scan(&bye)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrPlayerNotFound
		}
		return false, fmt.Errorf("failed to get bye flag of player %d: %w", playerID, err)
	}
	return bye, nil
}

func (r *postgresPlayerRepository) GetScore(ctx context.Context, playerID int) (float64, error) {
	var points float64
	err := r.db.QueryRowContext(ctx, `SELECT points FROM players WHERE id = $1`, playerID).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, fmt.Errorf("failed to get score of player %d: %w", playerID, err)
	}
	return points, nil
}

// ApplyResult credits one side of a match. The opponent is appended to the
// history only if absent, so a forced rematch never duplicates an entry.
func (r *postgresPlayerRepository) ApplyResult(ctx context.Context, exec SQLExecutor, playerID, tournamentID, opponentID int, points float64) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE players SET
			points = points + $1,
			matches_played = matches_played + 1,
			prev_opponents = CASE
				WHEN $2::integer = ANY(prev_opponents) THEN prev_opponents
				ELSE array_append(prev_opponents, $2::integer)
			END
		WHERE id = $3 AND tournament_id = $4`
	result, err := executor.ExecContext(ctx, query, points, opponentID, playerID, tournamentID)
	if err != nil {
		return fmt.Errorf("ApplyResult: failed to update player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) AssignBye(ctx context.Context, exec SQLExecutor, playerID, tournamentID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE players SET bye = TRUE, points = points + $1 WHERE id = $2 AND tournament_id = $3`
	result, err := executor.ExecContext(ctx, query, models.ByePoints, playerID, tournamentID)
	if err != nil {
		return fmt.Errorf("AssignBye: failed to update player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) UpdateOpponentStrength(ctx context.Context, exec SQLExecutor, playerID int, value float64) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE players SET opp_strength = $1 WHERE id = $2`, value, playerID)
	if err != nil {
		return fmt.Errorf("UpdateOpponentStrength: failed to update player %d: %w", playerID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) DeleteByTournamentID(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM players WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrPlayerConflict
		case "23503": // foreign_key_violation
			return ErrPlayerTournamentInvalid
		}
	}
	return err
}

func toIntSlice(a pq.Int64Array) []int {
	out := make([]int, len(a))
	for i, v := range a {
		out[i] = int(v)
	}
	return out
}
