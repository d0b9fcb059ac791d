package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/metrics"
	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	"github.com/tonnahe171051/poolmate-sub002/storage"
)

const testLockTTL = time.Minute

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.BracketEvent
	err    error
}

func (n *recordingNotifier) MatchesChanged(_ context.Context, event models.BracketEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []models.BracketEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.BracketEvent, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) Last(t *testing.T) models.BracketEvent {
	t.Helper()
	events := n.Events()
	require.NotEmpty(t, events, "no bracket events recorded")
	return events[len(events)-1]
}

type fixture struct {
	store    *repositories.MemoryStore
	locks    *storage.MemoryMatchLockStore
	clock    *testClock
	notifier *recordingNotifier
	metrics  *metrics.Metrics

	tournaments TournamentService
	brackets    BracketService
	matches     MatchService
	stages      StageService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, opts ...BracketServiceOption) *fixture {
	t.Helper()
	logger := discardLogger()
	f := &fixture{
		store:    repositories.NewMemoryStore(),
		clock:    &testClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)},
		notifier: &recordingNotifier{},
		metrics:  metrics.New(),
	}
	f.locks = storage.NewMemoryMatchLockStore(f.clock.Now)
	f.tournaments = NewTournamentService(f.store, logger)
	f.brackets = NewBracketService(f.store, f.notifier, f.metrics, logger, opts...)
	f.matches = NewMatchService(f.store, f.locks, testLockTTL, f.notifier, f.metrics, logger)
	f.stages = NewStageService(f.store, f.notifier, logger)
	return f
}

func singleElimination(name string) CreateTournamentInput {
	return CreateTournamentInput{
		Name:          name,
		BracketType:   models.BracketSingleElimination,
		WinnersRaceTo: 5,
	}
}

func doubleElimination(name string) CreateTournamentInput {
	return CreateTournamentInput{
		Name:          name,
		BracketType:   models.BracketDoubleElimination,
		WinnersRaceTo: 5,
		LosersRaceTo:  4,
		FinalsRaceTo:  7,
	}
}

// tournament creates a tournament with n confirmed players seeded 1..n.
func (f *fixture) tournament(t *testing.T, input CreateTournamentInput, n int) (*models.Tournament, []*models.TournamentPlayer) {
	t.Helper()
	ctx := context.Background()
	tour, err := f.tournaments.CreateTournament(ctx, input)
	require.NoError(t, err)

	players := make([]*models.TournamentPlayer, 0, n)
	for i := 1; i <= n; i++ {
		p, err := f.tournaments.RegisterPlayer(ctx, tour.ID, RegisterPlayerInput{
			Name: fmt.Sprintf("Player %d", i),
			Seed: models.IntPtr(i),
		})
		require.NoError(t, err)
		players = append(players, p)
	}
	return tour, players
}

func (f *fixture) build(t *testing.T, tournamentID int) *BracketView {
	t.Helper()
	view, err := f.brackets.CreateBracket(context.Background(), CreateBracketInput{TournamentID: tournamentID})
	require.NoError(t, err)
	return view
}

func (f *fixture) stageMatches(t *testing.T, stageID int) []*models.Match {
	t.Helper()
	matches, err := f.store.Matches().ListByStage(context.Background(), stageID)
	require.NoError(t, err)
	return matches
}

func (f *fixture) match(t *testing.T, stageID int, uid string) *models.Match {
	t.Helper()
	for _, m := range f.stageMatches(t, stageID) {
		if m.BracketUID == uid {
			return m
		}
	}
	t.Fatalf("match %s not found in stage %d", uid, stageID)
	return nil
}

// play records a race-to win for the player in winnerSlot.
func (f *fixture) play(t *testing.T, stageID int, uid string, winnerSlot int) *MatchUpdateResult {
	t.Helper()
	m := f.match(t, stageID, uid)
	s1, s2 := m.RaceTo, 0
	if winnerSlot == 2 {
		s1, s2 = 0, m.RaceTo
	}
	res, err := f.matches.UpdateMatch(context.Background(), UpdateMatchInput{
		MatchID: m.ID,
		Version: m.Version,
		Score1:  &s1,
		Score2:  &s2,
		Actor:   "referee",
	})
	require.NoError(t, err)
	return res
}

// playOut plays every ready match with slot 1 winning until the stage is finished.
func (f *fixture) playOut(t *testing.T, stageID int) {
	t.Helper()
	for {
		var next *models.Match
		for _, m := range f.stageMatches(t, stageID) {
			if !m.IsCompleted() && m.Slot1.Filled() && m.Slot2.Filled() {
				next = m
				break
			}
		}
		if next == nil {
			return
		}
		f.play(t, stageID, next.BracketUID, 1)
	}
}

func countMatches(view *BracketView) int {
	n := 0
	for _, side := range view.Sides {
		for _, round := range side.Rounds {
			n += len(round.Matches)
		}
	}
	return n
}

func playerID(m *models.Match, slot int) int {
	p := m.Slot(slot).PlayerID
	if p == nil {
		return 0
	}
	return *p
}

var errNotifierDown = errors.New("notifier down")
