package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
)

// memoryStore keeps everything in process memory. It backs STORAGE_DRIVER=memory
// and the tests, and mirrors the Postgres store's constraints and ordering.
type memoryStore struct {
	mu           sync.Mutex
	tournaments  map[int]*models.Tournament
	players      map[int]*models.Player
	matches      []*models.Match
	nextPlayerID int
	nextMatchID  int
}

func NewMemoryStore() Store {
	return &memoryStore{
		tournaments:  make(map[int]*models.Tournament),
		players:      make(map[int]*models.Player),
		nextPlayerID: 1,
		nextMatchID:  1,
	}
}

func (s *memoryStore) CreateTournament(ctx context.Context, id int, name string) (*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[id]; ok {
		return nil, ErrTournamentConflict
	}
	t := &models.Tournament{ID: id, Name: name, CreatedAt: time.Now()}
	s.tournaments[id] = t
	cp := *t
	return &cp, nil
}

func (s *memoryStore) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *memoryStore) DeleteAllMatches(ctx context.Context, tournamentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.matches[:0]
	for _, m := range s.matches {
		if m.TournamentID != tournamentID {
			kept = append(kept, m)
		}
	}
	s.matches = kept
	return nil
}

// DeleteAllPlayers also drops the tournament's matches, like the cascading
// foreign keys in the Postgres schema.
func (s *memoryStore) DeleteAllPlayers(ctx context.Context, tournamentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.players {
		if p.TournamentID == tournamentID {
			delete(s.players, id)
		}
	}
	kept := s.matches[:0]
	for _, m := range s.matches {
		if m.TournamentID != tournamentID {
			kept = append(kept, m)
		}
	}
	s.matches = kept
	return nil
}

func (s *memoryStore) CountPlayers(ctx context.Context, tournamentID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, p := range s.players {
		if p.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (s *memoryStore) RegisterPlayer(ctx context.Context, name string, tournamentID int) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tournaments[tournamentID]; !ok {
		return nil, ErrPlayerTournamentInvalid
	}
	for _, p := range s.players {
		if p.TournamentID == tournamentID && strings.EqualFold(p.Name, name) {
			return nil, ErrPlayerConflict
		}
	}
	p := &models.Player{
		ID:           s.nextPlayerID,
		TournamentID: tournamentID,
		Name:         name,
		Opponents:    []int{},
	}
	s.nextPlayerID++
	s.players[p.ID] = p
	return copyPlayer(p), nil
}

func (s *memoryStore) GetPlayer(ctx context.Context, playerID int) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return copyPlayer(p), nil
}

func (s *memoryStore) FetchStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	standings := make([]*models.Standing, 0)
	for _, p := range s.players {
		if p.TournamentID != tournamentID {
			continue
		}
		standings = append(standings, &models.Standing{
			ID:               p.ID,
			Name:             p.Name,
			Score:            p.Score,
			MatchesPlayed:    p.MatchesPlayed,
			OpponentStrength: p.OpponentStrength,
		})
	}
	brackets.SortStandings(standings)
	return standings, nil
}

func (s *memoryStore) FetchOpponentHistory(ctx context.Context, playerID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return append([]int{}, p.Opponents...), nil
}

func (s *memoryStore) FetchByeFlag(ctx context.Context, playerID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return false, ErrPlayerNotFound
	}
	return p.HasBye, nil
}

func (s *memoryStore) ApplyMatchResult(ctx context.Context, winnerID, loserID, tournamentID int, isDraw bool) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate both sides before touching anything so a failure leaves no partial update.
	winner, ok := s.players[winnerID]
	if !ok || winner.TournamentID != tournamentID {
		return nil, ErrPlayerNotFound
	}
	loser, ok := s.players[loserID]
	if !ok || loser.TournamentID != tournamentID {
		return nil, ErrPlayerNotFound
	}

	winnerPoints, loserPoints := models.WinPoints, models.LossPoints
	if isDraw {
		winnerPoints, loserPoints = models.DrawPoints, models.DrawPoints
	}
	applyResult(winner, loserID, winnerPoints)
	applyResult(loser, winnerID, loserPoints)

	m := &models.Match{
		ID:           s.nextMatchID,
		TournamentID: tournamentID,
		WinnerID:     winnerID,
		LoserID:      loserID,
		IsDraw:       isDraw,
		CreatedAt:    time.Now(),
	}
	s.nextMatchID++
	s.matches = append(s.matches, m)
	cp := *m
	return &cp, nil
}

func applyResult(p *models.Player, opponentID int, points float64) {
	p.Score += points
	p.MatchesPlayed++
	if !p.HasPlayed(opponentID) {
		p.Opponents = append(p.Opponents, opponentID)
	}
}

func (s *memoryStore) AssignBye(ctx context.Context, playerID, tournamentID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok || p.TournamentID != tournamentID {
		return ErrPlayerNotFound
	}
	p.HasBye = true
	p.Score += models.ByePoints
	return nil
}

func (s *memoryStore) FetchPlayerScore(ctx context.Context, playerID int) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return 0, ErrPlayerNotFound
	}
	return p.Score, nil
}

func (s *memoryStore) UpdateOpponentStrength(ctx context.Context, playerID int, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.OpponentStrength = value
	return nil
}

func (s *memoryStore) FetchFinalStandings(ctx context.Context, tournamentID int) ([]*models.FinalStanding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*models.FinalStanding, 0)
	for _, p := range s.players {
		if p.TournamentID != tournamentID {
			continue
		}
		rows = append(rows, &models.FinalStanding{
			PlayerID:         p.ID,
			Name:             p.Name,
			Score:            p.Score,
			OpponentStrength: p.OpponentStrength,
		})
	}
	brackets.SortFinalStandings(rows)
	return rows, nil
}

func (s *memoryStore) ListMatches(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]*models.Match, 0)
	for _, m := range s.matches {
		if m.TournamentID == tournamentID {
			cp := *m
			matches = append(matches, &cp)
		}
	}
	return matches, nil
}

func copyPlayer(p *models.Player) *models.Player {
	cp := *p
	cp.Opponents = append([]int{}, p.Opponents...)
	return &cp
}
