package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentReads bounds the per-player reads fanned out inside one operation.
const maxConcurrentReads = 8

// Broadcaster pushes tournament events to live clients.
type Broadcaster interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

// RankingsExporter publishes final rankings and returns where they ended up.
type RankingsExporter interface {
	Export(ctx context.Context, tournament *models.Tournament, rankings []models.Ranking) (string, error)
}

type CreateTournamentInput struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type RegisterPlayerInput struct {
	Name string `json:"name"`
}

// ReportMatchInput carries one result. For a draw the order of the two ids
// does not matter.
type ReportMatchInput struct {
	WinnerID int  `json:"winner_id"`
	LoserID  int  `json:"loser_id"`
	IsDraw   bool `json:"is_draw"`
}

type RankingsResult struct {
	TournamentID int              `json:"tournament_id"`
	Rankings     []models.Ranking `json:"rankings"`
	ExportURL    string           `json:"export_url,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	EnsureTournament(ctx context.Context, id int, name string) (*models.Tournament, error)
	GetTournament(ctx context.Context, tournamentID int) (*models.Tournament, error)
	RegisterPlayer(ctx context.Context, tournamentID int, input RegisterPlayerInput) (*models.Player, error)
	CountPlayers(ctx context.Context, tournamentID int) (int, error)
	Standings(ctx context.Context, tournamentID int) ([]*models.Standing, error)
	DeletePlayers(ctx context.Context, tournamentID int) error
	DeleteMatches(ctx context.Context, tournamentID int) error
	ReportMatch(ctx context.Context, tournamentID int, input ReportMatchInput) (*models.Match, error)
	ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error)
	SwissPairings(ctx context.Context, tournamentID int) (*models.Round, error)
	FinalRankings(ctx context.Context, tournamentID int) (*RankingsResult, error)
}

type tournamentService struct {
	store       repositories.Store
	generator   brackets.RoundGenerator
	broadcaster Broadcaster
	exporter    RankingsExporter
	logger      *slog.Logger
}

// NewTournamentService wires the engine to its storage. broadcaster and
// exporter are optional.
func NewTournamentService(
	store repositories.Store,
	generator brackets.RoundGenerator,
	broadcaster Broadcaster,
	exporter RankingsExporter,
	logger *slog.Logger,
) TournamentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &tournamentService{
		store:       store,
		generator:   generator,
		broadcaster: broadcaster,
		exporter:    exporter,
		logger:      logger,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if input.ID <= 0 || name == "" {
		return nil, fmt.Errorf("%w: tournament id must be positive and name non-empty", ErrValidationFailed)
	}
	t, err := s.store.CreateTournament(ctx, input.ID, name)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentConflict) {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateTournament, input.ID)
		}
		return nil, storageError("create tournament", err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.String("name", t.Name))
	return t, nil
}

// EnsureTournament returns the tournament, creating it first when it does not exist yet.
func (s *tournamentService) EnsureTournament(ctx context.Context, id int, name string) (*models.Tournament, error) {
	t, err := s.store.GetTournament(ctx, id)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, repositories.ErrTournamentNotFound) {
		return nil, storageError("get tournament", err)
	}
	s.logger.InfoContext(ctx, "tournament not found, creating it", slog.Int("tournament_id", id))
	t, err = s.CreateTournament(ctx, CreateTournamentInput{ID: id, Name: name})
	if errors.Is(err, ErrDuplicateTournament) {
		// Lost a creation race; the row is there now.
		return s.GetTournament(ctx, id)
	}
	return t, err
}

func (s *tournamentService) GetTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	t, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, storageError("get tournament", err)
	}
	return t, nil
}

func (s *tournamentService) RegisterPlayer(ctx context.Context, tournamentID int, input RegisterPlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	p, err := s.store.RegisterPlayer(ctx, name, tournamentID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerConflict):
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRegistration, name)
		case errors.Is(err, repositories.ErrPlayerTournamentInvalid):
			return nil, fmt.Errorf("%w: id %d", ErrTournamentNotFound, tournamentID)
		}
		return nil, storageError("register player", err)
	}

	s.logger.InfoContext(ctx, "player registered",
		slog.Int("tournament_id", tournamentID), slog.Int("player_id", p.ID), slog.String("name", p.Name))
	s.publish(tournamentID, brackets.EventPlayerRegistered, p)
	return p, nil
}

func (s *tournamentService) CountPlayers(ctx context.Context, tournamentID int) (int, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return 0, err
	}
	count, err := s.store.CountPlayers(ctx, tournamentID)
	if err != nil {
		return 0, storageError("count players", err)
	}
	return count, nil
}

func (s *tournamentService) Standings(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	standings, err := s.store.FetchStandings(ctx, tournamentID)
	if err != nil {
		return nil, storageError("fetch standings", err)
	}
	brackets.SortStandings(standings)
	return standings, nil
}

func (s *tournamentService) DeletePlayers(ctx context.Context, tournamentID int) error {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return err
	}
	if err := s.store.DeleteAllPlayers(ctx, tournamentID); err != nil {
		return storageError("delete players", err)
	}
	s.logger.InfoContext(ctx, "players deleted", slog.Int("tournament_id", tournamentID))
	s.publish(tournamentID, brackets.EventTournamentReset, map[string]string{"reset": "players"})
	return nil
}

func (s *tournamentService) DeleteMatches(ctx context.Context, tournamentID int) error {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return err
	}
	if err := s.store.DeleteAllMatches(ctx, tournamentID); err != nil {
		return storageError("delete matches", err)
	}
	s.logger.InfoContext(ctx, "matches deleted", slog.Int("tournament_id", tournamentID))
	s.publish(tournamentID, brackets.EventTournamentReset, map[string]string{"reset": "matches"})
	return nil
}

// ReportMatch records a result. It is not idempotent: reporting the same
// result twice counts it twice, so callers must not retry blindly.
func (s *tournamentService) ReportMatch(ctx context.Context, tournamentID int, input ReportMatchInput) (*models.Match, error) {
	if input.WinnerID == input.LoserID {
		return nil, fmt.Errorf("%w: a player cannot play against themselves (id %d)", ErrInvalidMatch, input.WinnerID)
	}
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	for _, id := range []int{input.WinnerID, input.LoserID} {
		if err := s.requirePlayer(ctx, tournamentID, id); err != nil {
			return nil, err
		}
	}

	match, err := s.store.ApplyMatchResult(ctx, input.WinnerID, input.LoserID, tournamentID, input.IsDraw)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) || errors.Is(err, repositories.ErrMatchPlayerInvalid) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidMatch, err)
		}
		return nil, storageError("apply match result", err)
	}

	s.logger.InfoContext(ctx, "match reported",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", match.ID),
		slog.Int("winner_id", match.WinnerID),
		slog.Int("loser_id", match.LoserID),
		slog.Bool("draw", match.IsDraw),
	)
	s.publish(tournamentID, brackets.EventMatchReported, match)
	return match, nil
}

func (s *tournamentService) ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	matches, err := s.store.ListMatches(ctx, tournamentID)
	if err != nil {
		return nil, storageError("list matches", err)
	}
	return matches, nil
}

// SwissPairings generates the next round from the current standings. When the
// player count is odd the bye is recorded before the round is returned.
func (s *tournamentService) SwissPairings(ctx context.Context, tournamentID int) (*models.Round, error) {
	if _, err := s.GetTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	standings, err := s.store.FetchStandings(ctx, tournamentID)
	if err != nil {
		return nil, storageError("fetch standings", err)
	}
	if len(standings) < 2 {
		return nil, fmt.Errorf("%w: tournament %d has %d", ErrNotEnoughPlayers, tournamentID, len(standings))
	}
	brackets.SortStandings(standings)

	entrants, err := s.loadEntrants(ctx, standings)
	if err != nil {
		return nil, err
	}

	round, err := s.generator.GenerateRound(ctx, brackets.GenerateRoundParams{
		TournamentID: tournamentID,
		Entrants:     entrants,
	})
	if err != nil {
		switch {
		case errors.Is(err, brackets.ErrNotEnoughPlayers):
			return nil, fmt.Errorf("%w: %w", ErrNotEnoughPlayers, err)
		case errors.Is(err, brackets.ErrByePoolExhausted):
			return nil, fmt.Errorf("%w: tournament %d", ErrByePoolExhausted, tournamentID)
		case errors.Is(err, brackets.ErrPairingExhausted):
			return nil, fmt.Errorf("%w: %w", ErrPairingExhausted, err)
		}
		return nil, fmt.Errorf("failed to generate %s round for tournament %d: %w", s.generator.GetName(), tournamentID, err)
	}

	if round.Bye != nil {
		if err := s.store.AssignBye(ctx, round.Bye.PlayerID, tournamentID); err != nil {
			return nil, storageError("assign bye", err)
		}
		attrs := []any{slog.Int("tournament_id", tournamentID), slog.Int("player_id", round.Bye.PlayerID)}
		if round.Bye.Repeat {
			s.logger.WarnContext(ctx, "bye pool exhausted, player receives a second bye", attrs...)
		} else {
			s.logger.InfoContext(ctx, "bye assigned", attrs...)
		}
	}
	for _, p := range round.Pairings {
		if p.Rematch {
			s.logger.WarnContext(ctx, "forced rematch: no unplayed opponent left",
				slog.Int("tournament_id", tournamentID),
				slog.Int("player1_id", p.Player1ID),
				slog.Int("player2_id", p.Player2ID),
			)
		}
	}

	s.logger.InfoContext(ctx, "round paired", slog.Int("tournament_id", tournamentID), slog.Int("pairings", len(round.Pairings)))
	s.publish(tournamentID, brackets.EventRoundPaired, round)
	return round, nil
}

// FinalRankings recomputes every player's opponent strength, stores it and
// returns the competition-ranked table. It can be called after any round.
func (s *tournamentService) FinalRankings(ctx context.Context, tournamentID int) (*RankingsResult, error) {
	tournament, err := s.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	standings, err := s.store.FetchStandings(ctx, tournamentID)
	if err != nil {
		return nil, storageError("fetch standings", err)
	}

	histories, err := s.loadOpponentHistories(ctx, standings)
	if err != nil {
		return nil, err
	}

	scores := make(map[int]float64, len(standings))
	for _, st := range standings {
		scores[st.ID] = st.Score
	}
	for _, opponents := range histories {
		for _, id := range opponents {
			if _, ok := scores[id]; ok {
				continue
			}
			score, err := s.store.FetchPlayerScore(ctx, id)
			if err != nil {
				if errors.Is(err, repositories.ErrPlayerNotFound) {
					s.logger.WarnContext(ctx, "opponent no longer exists, counted as zero", slog.Int("player_id", id))
					scores[id] = 0
					continue
				}
				return nil, storageError("fetch player score", err)
			}
			scores[id] = score
		}
	}

	for i, st := range standings {
		strength := brackets.OpponentStrength(histories[i], scores)
		if err := s.store.UpdateOpponentStrength(ctx, st.ID, strength); err != nil {
			return nil, storageError("update opponent strength", err)
		}
	}

	rows, err := s.store.FetchFinalStandings(ctx, tournamentID)
	if err != nil {
		return nil, storageError("fetch final standings", err)
	}
	brackets.SortFinalStandings(rows)

	result := &RankingsResult{
		TournamentID: tournamentID,
		Rankings:     brackets.AssignRanks(rows),
	}

	if s.exporter != nil {
		location, err := s.exporter.Export(ctx, tournament, result.Rankings)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to export rankings", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		} else {
			result.ExportURL = location
		}
	}

	s.logger.InfoContext(ctx, "rankings computed", slog.Int("tournament_id", tournamentID), slog.Int("players", len(result.Rankings)))
	s.publish(tournamentID, brackets.EventRankingsUpdated, result)
	return result, nil
}

func (s *tournamentService) requirePlayer(ctx context.Context, tournamentID, playerID int) error {
	p, err := s.store.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return fmt.Errorf("%w: player %d not found", ErrInvalidMatch, playerID)
		}
		return storageError("get player", err)
	}
	if p.TournamentID != tournamentID {
		return fmt.Errorf("%w: player %d is not registered in tournament %d", ErrInvalidMatch, playerID, tournamentID)
	}
	return nil
}

// loadEntrants attaches opponent history and bye flag to each standing,
// keeping standings order.
func (s *tournamentService) loadEntrants(ctx context.Context, standings []*models.Standing) ([]brackets.Entrant, error) {
	entrants := make([]brackets.Entrant, len(standings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, st := range standings {
		g.Go(func() error {
			opponents, err := s.store.FetchOpponentHistory(gctx, st.ID)
			if err != nil {
				return storageError("fetch opponent history", err)
			}
			hasBye, err := s.store.FetchByeFlag(gctx, st.ID)
			if err != nil {
				return storageError("fetch bye flag", err)
			}
			entrants[i] = brackets.Entrant{
				ID:        st.ID,
				Name:      st.Name,
				Score:     st.Score,
				Opponents: opponents,
				HasBye:    hasBye,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entrants, nil
}

func (s *tournamentService) loadOpponentHistories(ctx context.Context, standings []*models.Standing) ([][]int, error) {
	histories := make([][]int, len(standings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for i, st := range standings {
		g.Go(func() error {
			opponents, err := s.store.FetchOpponentHistory(gctx, st.ID)
			if err != nil {
				return storageError("fetch opponent history", err)
			}
			histories[i] = opponents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return histories, nil
}

func (s *tournamentService) publish(tournamentID int, eventType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.Publish(tournamentID, eventType, payload)
	}
}
