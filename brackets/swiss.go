package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/Dosada05/swiss-tournament/models"
)

var (
	ErrNotEnoughPlayers = errors.New("not enough players to pair (minimum 2 required)")
	ErrByePoolExhausted = errors.New("every player has already received a bye")
	ErrPairingExhausted = errors.New("no opponent left without a rematch")
)

type ByePolicy string

const (
	// ByePolicyRepeat picks among all players once nobody is left without a bye.
	ByePolicyRepeat ByePolicy = "repeat"
	// ByePolicyStrict fails the round instead of handing out a second bye.
	ByePolicyStrict ByePolicy = "strict"
)

// Rand is the source used for bye selection. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type SwissOptions struct {
	Rand            Rand
	ByePolicy       ByePolicy
	DisallowRematch bool
}

type SwissGenerator struct {
	rnd             Rand
	byePolicy       ByePolicy
	disallowRematch bool
}

func NewSwissGenerator(opts SwissOptions) RoundGenerator {
	rnd := opts.Rand
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1))
	}
	policy := opts.ByePolicy
	if policy == "" {
		policy = ByePolicyRepeat
	}
	return &SwissGenerator{
		rnd:             rnd,
		byePolicy:       policy,
		disallowRematch: opts.DisallowRematch,
	}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// GenerateRound pairs the entrants for the next round.
// With an odd count one entrant without a previous bye sits out. The rest are
// paired top-down: each unpaired player takes the nearest lower-ranked player
// they have not met yet, or the last remaining player when everyone between
// has already been played.
func (g *SwissGenerator) GenerateRound(ctx context.Context, params GenerateRoundParams) (*models.Round, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params.Entrants) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrNotEnoughPlayers, len(params.Entrants))
	}

	pool := make([]Entrant, len(params.Entrants))
	copy(pool, params.Entrants)

	round := &models.Round{
		TournamentID: params.TournamentID,
		Pairings:     make([]models.Pairing, 0, len(pool)/2),
	}

	if len(pool)%2 != 0 {
		idx, repeat, err := g.pickBye(pool)
		if err != nil {
			return nil, err
		}
		round.Bye = &models.ByeAssignment{
			PlayerID:   pool[idx].ID,
			PlayerName: pool[idx].Name,
			Repeat:     repeat,
		}
		pool = removeIndex(pool, idx)
	}

	for len(pool) > 1 {
		top := pool[0]
		idx := nearestNewOpponent(top, pool)
		opp := pool[idx]
		rematch := top.hasPlayed(opp.ID)
		if rematch && g.disallowRematch {
			return nil, fmt.Errorf("%w: player %d (%s)", ErrPairingExhausted, top.ID, top.Name)
		}
		round.Pairings = append(round.Pairings, models.Pairing{
			Player1ID:   top.ID,
			Player1Name: top.Name,
			Player2ID:   opp.ID,
			Player2Name: opp.Name,
			Rematch:     rematch,
		})
		pool = removeIndex(pool, idx)
		pool = removeIndex(pool, 0)
	}

	return round, nil
}

// pickBye returns the pool index of the bye recipient and whether that
// player already had a bye.
func (g *SwissGenerator) pickBye(pool []Entrant) (int, bool, error) {
	candidates := make([]int, 0, len(pool))
	for i, e := range pool {
		if !e.HasBye {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		if g.byePolicy == ByePolicyStrict {
			return 0, false, ErrByePoolExhausted
		}
		return g.rnd.IntN(len(pool)), true, nil
	}
	return candidates[g.rnd.IntN(len(candidates))], false, nil
}

// nearestNewOpponent scans forward from the top of the pool. The last
// remaining player is returned unconditionally so pairing always progresses.
func nearestNewOpponent(top Entrant, pool []Entrant) int {
	last := len(pool) - 1
	for idx := 1; idx < last; idx++ {
		if !top.hasPlayed(pool[idx].ID) {
			return idx
		}
	}
	return last
}

func removeIndex(s []Entrant, i int) []Entrant {
	return append(s[:i], s[i+1:]...)
}
