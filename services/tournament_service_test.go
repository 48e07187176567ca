package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/models"
	"github.com/Dosada05/swiss-tournament/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Publish(tournamentID int, eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

type fakeExporter struct {
	ExportFunc func(ctx context.Context, t *models.Tournament, rankings []models.Ranking) (string, error)
	calls      int
}

func (f *fakeExporter) Export(ctx context.Context, t *models.Tournament, rankings []models.Ranking) (string, error) {
	f.calls++
	return f.ExportFunc(ctx, t, rankings)
}

// failingStore delegates to a real store except for the overridden reads.
type failingStore struct {
	repositories.Store
	err error
}

func (s *failingStore) FetchStandings(ctx context.Context, tournamentID int) ([]*models.Standing, error) {
	return nil, s.err
}

type fixedRand struct{ n int }

func (r fixedRand) IntN(n int) int { return r.n % n }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	svc         TournamentService
	store       repositories.Store
	broadcaster *recordingBroadcaster
}

func newFixture(t *testing.T, opts brackets.SwissOptions, exporter RankingsExporter) *fixture {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = fixedRand{}
	}
	store := repositories.NewMemoryStore()
	b := &recordingBroadcaster{}
	svc := NewTournamentService(store, brackets.NewSwissGenerator(opts), b, exporter, discardLogger())
	_, err := svc.CreateTournament(context.Background(), CreateTournamentInput{ID: 1, Name: "Spring Open"})
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, broadcaster: b}
}

func (f *fixture) register(t *testing.T, names ...string) []*models.Player {
	t.Helper()
	players := make([]*models.Player, len(names))
	for i, name := range names {
		p, err := f.svc.RegisterPlayer(context.Background(), 1, RegisterPlayerInput{Name: name})
		require.NoError(t, err)
		players[i] = p
	}
	return players
}

func TestRegisterPlayer_ShowsUpWithZeroRecord(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)
	ctx := context.Background()

	players := f.register(t, "Ada")

	standings, err := f.svc.Standings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, players[0].ID, standings[0].ID)
	assert.Equal(t, "Ada", standings[0].Name)
	assert.Equal(t, 0.0, standings[0].Score)
	assert.Equal(t, 0, standings[0].MatchesPlayed)

	count, err := f.svc.CountPlayers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, f.broadcaster.events, brackets.EventPlayerRegistered)
}

func TestRegisterPlayer_Errors(t *testing.T) {
	tests := []struct {
		name         string
		tournamentID int
		playerName   string
		wantErr      error
	}{
		{name: "duplicate name ignoring case", tournamentID: 1, playerName: "ADA", wantErr: ErrDuplicateRegistration},
		{name: "blank name", tournamentID: 1, playerName: "  ", wantErr: ErrValidationFailed},
		{name: "unknown tournament", tournamentID: 42, playerName: "Bea", wantErr: ErrTournamentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, brackets.SwissOptions{}, nil)
			f.register(t, "Ada")

			_, err := f.svc.RegisterPlayer(context.Background(), tt.tournamentID, RegisterPlayerInput{Name: tt.playerName})

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTournamentNotFound_IsConfigurationError(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)

	_, err := f.svc.Standings(context.Background(), 99)

	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCreateAndEnsureTournament(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)
	ctx := context.Background()

	_, err := f.svc.CreateTournament(ctx, CreateTournamentInput{ID: 1, Name: "Again"})
	assert.ErrorIs(t, err, ErrDuplicateTournament)

	_, err = f.svc.CreateTournament(ctx, CreateTournamentInput{ID: 0, Name: "Zero"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	existing, err := f.svc.EnsureTournament(ctx, 1, "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Spring Open", existing.Name)

	created, err := f.svc.EnsureTournament(ctx, 2, "Autumn Open")
	require.NoError(t, err)
	assert.Equal(t, 2, created.ID)

	got, err := f.svc.GetTournament(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Autumn Open", got.Name)
}

func TestReportMatch(t *testing.T) {
	tests := []struct {
		name       string
		isDraw     bool
		wantWinner float64
		wantLoser  float64
	}{
		{name: "decisive result", isDraw: false, wantWinner: 1.0, wantLoser: 0.0},
		{name: "draw", isDraw: true, wantWinner: 0.5, wantLoser: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, brackets.SwissOptions{}, nil)
			ctx := context.Background()
			p := f.register(t, "Ada", "Bea")

			match, err := f.svc.ReportMatch(ctx, 1, ReportMatchInput{WinnerID: p[0].ID, LoserID: p[1].ID, IsDraw: tt.isDraw})
			require.NoError(t, err)
			assert.Equal(t, tt.isDraw, match.IsDraw)

			winner, err := f.store.GetPlayer(ctx, p[0].ID)
			require.NoError(t, err)
			loser, err := f.store.GetPlayer(ctx, p[1].ID)
			require.NoError(t, err)

			assert.Equal(t, tt.wantWinner, winner.Score)
			assert.Equal(t, tt.wantLoser, loser.Score)
			assert.Equal(t, 1, winner.MatchesPlayed)
			assert.Equal(t, 1, loser.MatchesPlayed)
			assert.Equal(t, []int{p[1].ID}, winner.Opponents)
			assert.Equal(t, []int{p[0].ID}, loser.Opponents)

			matches, err := f.svc.ListMatches(ctx, 1)
			require.NoError(t, err)
			assert.Len(t, matches, 1)
			assert.Contains(t, f.broadcaster.events, brackets.EventMatchReported)
		})
	}
}

func TestReportMatch_InvalidReports(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)
	ctx := context.Background()
	p := f.register(t, "Ada", "Bea")

	_, err := f.svc.CreateTournament(ctx, CreateTournamentInput{ID: 2, Name: "Other"})
	require.NoError(t, err)
	outsider, err := f.svc.RegisterPlayer(ctx, 2, RegisterPlayerInput{Name: "Cal"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input ReportMatchInput
	}{
		{name: "same player twice", input: ReportMatchInput{WinnerID: p[0].ID, LoserID: p[0].ID}},
		{name: "unknown player", input: ReportMatchInput{WinnerID: p[0].ID, LoserID: 999}},
		{name: "player from another tournament", input: ReportMatchInput{WinnerID: outsider.ID, LoserID: p[1].ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ReportMatch(ctx, 1, tt.input)
			assert.ErrorIs(t, err, ErrInvalidMatch)
		})
	}

	// Nothing was written.
	standings, err := f.svc.Standings(ctx, 1)
	require.NoError(t, err)
	for _, s := range standings {
		assert.Equal(t, 0, s.MatchesPlayed)
	}
}

func TestSwissPairings_FirstRoundsFollowStandings(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)
	ctx := context.Background()
	p := f.register(t, "Ada", "Bea", "Cal", "Dan")

	round, err := f.svc.SwissPairings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, round.Pairings, 2)
	assert.Nil(t, round.Bye)
	assert.Equal(t, p[0].ID, round.Pairings[0].Player1ID)
	assert.Equal(t, p[1].ID, round.Pairings[0].Player2ID)
	assert.Equal(t, p[2].ID, round.Pairings[1].Player1ID)
	assert.Equal(t, p[3].ID, round.Pairings[1].Player2ID)

	// Ada and Bea drew, as did Cal and Dan: everyone stays level, so the next
	// round must skip the opponent already met.
	for _, pr := range round.Pairings {
		_, err := f.svc.ReportMatch(ctx, 1, ReportMatchInput{WinnerID: pr.Player1ID, LoserID: pr.Player2ID, IsDraw: true})
		require.NoError(t, err)
	}

	round, err = f.svc.SwissPairings(ctx, 1)
	require.NoError(t, err)
	require.Len(t, round.Pairings, 2)
	assert.Equal(t, [2]int{p[0].ID, p[2].ID}, [2]int{round.Pairings[0].Player1ID, round.Pairings[0].Player2ID})
	assert.Equal(t, [2]int{p[1].ID, p[3].ID}, [2]int{round.Pairings[1].Player1ID, round.Pairings[1].Player2ID})
	assert.Contains(t, f.broadcaster.events, brackets.EventRoundPaired)
}

func TestSwissPairings_TournamentInvariants(t *testing.T) {
	for _, size := range []int{4, 5, 6} {
		f := newFixture(t, brackets.SwissOptions{Rand: fixedRand{n: 1}}, nil)
		ctx := context.Background()
		names := []string{"Ada", "Bea", "Cal", "Dan", "Eve", "Fay"}[:size]
		f.register(t, names...)

		reported := 0
		byes := 0
		// More rounds than distinct opponents, so rematches and repeat byes occur.
		for r := 0; r < size+2; r++ {
			round, err := f.svc.SwissPairings(ctx, 1)
			require.NoError(t, err)

			assert.Len(t, round.Pairings, size/2)
			if size%2 == 1 {
				require.NotNil(t, round.Bye)
				byes++
			} else {
				assert.Nil(t, round.Bye)
			}

			for _, pr := range round.Pairings {
				_, err := f.svc.ReportMatch(ctx, 1, ReportMatchInput{WinnerID: pr.Player1ID, LoserID: pr.Player2ID})
				require.NoError(t, err)
				reported++
			}
		}

		standings, err := f.svc.Standings(ctx, 1)
		require.NoError(t, err)

		totalPlayed := 0
		totalScore := 0.0
		for _, s := range standings {
			totalPlayed += s.MatchesPlayed
			totalScore += s.Score

			history, err := f.store.FetchOpponentHistory(ctx, s.ID)
			require.NoError(t, err)
			seen := make(map[int]bool)
			for _, id := range history {
				assert.False(t, seen[id], "duplicate opponent %d in history of %d", id, s.ID)
				assert.NotEqual(t, s.ID, id)
				seen[id] = true
			}
		}

		assert.Equal(t, 2*reported, totalPlayed, "size %d", size)
		assert.Equal(t, float64(reported+byes), totalScore, "size %d", size)
	}
}

func TestSwissPairings_OddCountRecordsBye(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)
	ctx := context.Background()
	f.register(t, "Ada", "Bea", "Cal")

	round, err := f.svc.SwissPairings(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, round.Bye)
	assert.False(t, round.Bye.Repeat)

	player, err := f.store.GetPlayer(ctx, round.Bye.PlayerID)
	require.NoError(t, err)
	assert.True(t, player.HasBye)
	assert.Equal(t, models.ByePoints, player.Score)
	assert.Equal(t, 0, player.MatchesPlayed)
	assert.Empty(t, player.Opponents)
}

func TestSwissPairings_ConfigurationErrors(t *testing.T) {
	t.Run("fewer than two players", func(t *testing.T) {
		f := newFixture(t, brackets.SwissOptions{}, nil)
		f.register(t, "Ada")

		_, err := f.svc.SwissPairings(context.Background(), 1)

		assert.ErrorIs(t, err, ErrNotEnoughPlayers)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("strict bye policy runs out", func(t *testing.T) {
		f := newFixture(t, brackets.SwissOptions{ByePolicy: brackets.ByePolicyStrict}, nil)
		ctx := context.Background()
		f.register(t, "Ada", "Bea", "Cal")

		for i := 0; i < 3; i++ {
			round, err := f.svc.SwissPairings(ctx, 1)
			require.NoError(t, err)
			require.NotNil(t, round.Bye)
		}

		_, err := f.svc.SwissPairings(ctx, 1)
		assert.ErrorIs(t, err, ErrByePoolExhausted)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("rematch disallowed", func(t *testing.T) {
		f := newFixture(t, brackets.SwissOptions{DisallowRematch: true}, nil)
		ctx := context.Background()
		p := f.register(t, "Ada", "Bea")
		_, err := f.svc.ReportMatch(ctx, 1, ReportMatchInput{WinnerID: p[0].ID, LoserID: p[1].ID})
		require.NoError(t, err)

		_, err = f.svc.SwissPairings(ctx, 1)
		assert.ErrorIs(t, err, ErrPairingExhausted)
	})
}

func TestFinalRankings(t *testing.T) {
	exporter := &fakeExporter{ExportFunc: func(ctx context.Context, tr *models.Tournament, rankings []models.Ranking) (string, error) {
		return "https://cdn.example.com/tournaments/1/final-rankings.json", nil
	}}
	f := newFixture(t, brackets.SwissOptions{}, exporter)
	ctx := context.Background()
	p := f.register(t, "Ada", "Bea", "Cal", "Dan")

	_, err := f.svc.ReportMatch(ctx, 1, ReportMatchInput{WinnerID: p[0].ID, LoserID: p[1].ID})
	require.NoError(t, err)
	_, err = f.svc.ReportMatch(ctx, 1, ReportMatchInput{WinnerID: p[2].ID, LoserID: p[3].ID})
	require.NoError(t, err)

	result, err := f.svc.FinalRankings(ctx, 1)
	require.NoError(t, err)

	require.Len(t, result.Rankings, 4)
	wantIDs := []int{p[0].ID, p[2].ID, p[1].ID, p[3].ID}
	wantRanks := []int{1, 1, 3, 3}
	wantStrength := []float64{0, 0, 1, 1}
	for i, r := range result.Rankings {
		assert.Equal(t, wantIDs[i], r.PlayerID)
		assert.Equal(t, wantRanks[i], r.Rank)
		assert.InDelta(t, wantStrength[i], r.OpponentStrength, 1e-9)
	}
	assert.Equal(t, "https://cdn.example.com/tournaments/1/final-rankings.json", result.ExportURL)
	assert.Equal(t, 1, exporter.calls)
	assert.Contains(t, f.broadcaster.events, brackets.EventRankingsUpdated)

	bea, err := f.store.GetPlayer(ctx, p[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, bea.OpponentStrength)
}

func TestFinalRankings_ExportFailureKeepsRankings(t *testing.T) {
	exporter := &fakeExporter{ExportFunc: func(ctx context.Context, tr *models.Tournament, rankings []models.Ranking) (string, error) {
		return "", errors.New("bucket unavailable")
	}}
	f := newFixture(t, brackets.SwissOptions{}, exporter)
	f.register(t, "Ada", "Bea")

	result, err := f.svc.FinalRankings(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, result.Rankings, 2)
	assert.Empty(t, result.ExportURL)
	assert.Equal(t, 1, exporter.calls)
}

func TestFinalRankings_NoMatchesYieldsZeroStrength(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)
	f.register(t, "Ada", "Bea")

	result, err := f.svc.FinalRankings(context.Background(), 1)

	require.NoError(t, err)
	for _, r := range result.Rankings {
		assert.Equal(t, 1, r.Rank)
		assert.Equal(t, 0.0, r.OpponentStrength)
	}
}

func TestDeleteOperations(t *testing.T) {
	f := newFixture(t, brackets.SwissOptions{}, nil)
	ctx := context.Background()
	p := f.register(t, "Ada", "Bea")
	_, err := f.svc.ReportMatch(ctx, 1, ReportMatchInput{WinnerID: p[0].ID, LoserID: p[1].ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteMatches(ctx, 1))
	matches, err := f.svc.ListMatches(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, f.svc.DeletePlayers(ctx, 1))
	count, err := f.svc.CountPlayers(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Contains(t, f.broadcaster.events, brackets.EventTournamentReset)
}

func TestStorageFailuresAreWrapped(t *testing.T) {
	store := repositories.NewMemoryStore()
	_, err := store.CreateTournament(context.Background(), 1, "Spring Open")
	require.NoError(t, err)
	failing := &failingStore{Store: store, err: errors.New("connection reset")}
	svc := NewTournamentService(failing, brackets.NewSwissGenerator(brackets.SwissOptions{}), nil, nil, discardLogger())

	_, err = svc.SwissPairings(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorContains(t, err, "connection reset")

	_, err = svc.FinalRankings(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStorage)
}
