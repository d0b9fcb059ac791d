package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
)

func TestUpdateMatch_CompletesAndAdvances(t *testing.T) {
	f := newFixture(t)
	tour, players := f.tournament(t, singleElimination("Advance"), 4)
	view := f.build(t, tour.ID)
	stageID := view.Stage.ID

	m := f.match(t, stageID, "KR1M1")
	require.Equal(t, int64(1), m.Version)

	res, err := f.matches.UpdateMatch(context.Background(), UpdateMatchInput{
		MatchID: m.ID,
		Version: m.Version,
		Score1:  models.IntPtr(5),
		Score2:  models.IntPtr(2),
		Actor:   "referee",
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchCompleted, res.Match.Status)
	require.NotNil(t, res.Match.WinnerID)
	assert.Equal(t, players[0].ID, *res.Match.WinnerID)
	assert.Equal(t, int64(2), res.Match.Version)

	final := f.match(t, stageID, "KR2M1")
	require.Len(t, res.Advanced, 1)
	assert.Equal(t, final.ID, res.Advanced[0].ID)
	assert.Equal(t, players[0].ID, playerID(final, 1))
	assert.False(t, final.Slot2.Filled())

	event := f.notifier.Last(t)
	assert.Equal(t, models.EventMatchCompleted, event.Type)
	assert.Equal(t, []int{m.ID, final.ID}, event.MatchIDs)
}

func TestUpdateMatch_PartialScoreStartsMatch(t *testing.T) {
	f := newFixture(t)
	tour, _ := f.tournament(t, singleElimination("Partial"), 4)
	view := f.build(t, tour.ID)
	m := f.match(t, view.Stage.ID, "KR1M2")

	res, err := f.matches.UpdateMatch(context.Background(), UpdateMatchInput{
		MatchID: m.ID,
		Version: m.Version,
		Score1:  models.IntPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, res.Match.Status)
	assert.Nil(t, res.Match.WinnerID)
	assert.Empty(t, res.Advanced)
	assert.Equal(t, models.EventMatchUpdated, f.notifier.Last(t).Type)

	res, err = f.matches.UpdateMatch(context.Background(), UpdateMatchInput{
		MatchID: m.ID,
		Version: res.Match.Version,
		Score2:  models.IntPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, res.Match.Status)
	assert.Equal(t, 2, *res.Match.Score1)
	assert.Equal(t, playerID(m, 2), *res.Match.WinnerID)
}

func TestUpdateMatch_StaleVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, singleElimination("Stale"), 4)
	view := f.build(t, tour.ID)
	m := f.match(t, view.Stage.ID, "KR1M1")

	_, err := f.matches.UpdateMatch(ctx, UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score1: models.IntPtr(1)})
	require.NoError(t, err)

	_, err = f.matches.UpdateMatch(ctx, UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score2: models.IntPtr(3)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	var conflict *ConcurrencyError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, m.ID, conflict.MatchID)
	assert.Equal(t, int64(1), conflict.ExpectedVersion)
	require.NotNil(t, conflict.Latest)
	assert.Equal(t, int64(2), conflict.Latest.Version)
	assert.Equal(t, 1, *conflict.Latest.Score1)
	assert.Nil(t, conflict.Latest.Score2)
}

func TestUpdateMatch_ConcurrentWritersOneWins(t *testing.T) {
	f := newFixture(t)
	tour, _ := f.tournament(t, singleElimination("Race"), 4)
	view := f.build(t, tour.ID)
	m := f.match(t, view.Stage.ID, "KR1M1")

	const writers = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			_, err := f.matches.UpdateMatch(context.Background(), UpdateMatchInput{
				MatchID: m.ID,
				Version: m.Version,
				Score1:  models.IntPtr(score % 4),
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrConcurrencyConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(writers-1), conflicts.Load())
	assert.Equal(t, int64(2), f.match(t, view.Stage.ID, "KR1M1").Version)
}

func TestUpdateMatch_Validation(t *testing.T) {
	f := newFixture(t)
	tour, players := f.tournament(t, singleElimination("Rules"), 4)
	view := f.build(t, tour.ID)
	m := f.match(t, view.Stage.ID, "KR1M1")
	notStarted := models.MatchNotStarted

	tests := []struct {
		name    string
		input   UpdateMatchInput
		message string
	}{
		{
			name:    "missing version",
			input:   UpdateMatchInput{MatchID: m.ID, Score1: models.IntPtr(1)},
			message: "version token is required",
		},
		{
			name:    "score above race-to",
			input:   UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score1: models.IntPtr(6)},
			message: "score cannot exceed race-to (5)",
		},
		{
			name:    "negative score",
			input:   UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score2: models.IntPtr(-1)},
			message: "score cannot be negative",
		},
		{
			name:    "both reach race-to",
			input:   UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score1: models.IntPtr(5), Score2: models.IntPtr(5)},
			message: "both players cannot reach race-to",
		},
		{
			name:    "winner outside the match",
			input:   UpdateMatchInput{MatchID: m.ID, Version: m.Version, WinnerID: models.IntPtr(players[1].ID)},
			message: "winner must be one of the two match players",
		},
		{
			name: "winner with fewer games",
			input: UpdateMatchInput{
				MatchID: m.ID, Version: m.Version,
				Score1: models.IntPtr(3), Score2: models.IntPtr(4), WinnerID: models.IntPtr(players[0].ID),
			},
			message: "winner must have won more games than the loser",
		},
		{
			name:    "back to not started",
			input:   UpdateMatchInput{MatchID: m.ID, Version: m.Version, Status: &notStarted},
			message: "cannot be moved back to not_started",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.matches.UpdateMatch(context.Background(), tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	stored := f.match(t, view.Stage.ID, "KR1M1")
	assert.Equal(t, int64(1), stored.Version)
	assert.Equal(t, models.MatchNotStarted, stored.Status)
}

func TestUpdateMatch_EmptySlot(t *testing.T) {
	f := newFixture(t)
	tour, _ := f.tournament(t, singleElimination("Waiting"), 5)
	view := f.build(t, tour.ID)
	// slot 2 waits for the 4 v 5 match
	m := f.match(t, view.Stage.ID, "KR2M1")

	_, err := f.matches.UpdateMatch(context.Background(), UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score2: models.IntPtr(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "cannot record a score for slot 2: empty slot")

	_, err = f.matches.StartMatch(context.Background(), m.ID, m.Version, nil, "")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

// duplicateSlotOne puts slot 1's player into slot 2 of the stored match.
func duplicateSlotOne(t *testing.T, f *fixture, m *models.Match) *models.Match {
	t.Helper()
	m.Slot2.PlayerID = models.IntPtr(*m.Slot1.PlayerID)
	require.NoError(t, f.store.Matches().UpdateVersioned(context.Background(), m))
	return m
}

func TestSamePlayerInBothSlotsIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, singleElimination("Mirror"), 4)
	view := f.build(t, tour.ID)
	stageID := view.Stage.ID

	open := duplicateSlotOne(t, f, f.match(t, stageID, "KR1M2"))
	_, err := f.matches.UpdateMatch(ctx, UpdateMatchInput{MatchID: open.ID, Version: open.Version, Score1: models.IntPtr(5), Score2: models.IntPtr(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "same player occupies both slots")
	assert.Equal(t, open.Version, f.match(t, stageID, "KR1M2").Version)

	f.play(t, stageID, "KR1M1", 1)
	played := duplicateSlotOne(t, f, f.match(t, stageID, "KR1M1"))
	_, err = f.matches.CorrectMatch(ctx, CorrectMatchInput{MatchID: played.ID, Version: played.Version, Score1: models.IntPtr(5), Score2: models.IntPtr(3)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "same player occupies both slots")
	assert.Equal(t, played.Version, f.match(t, stageID, "KR1M1").Version)
}

func TestUpdateMatch_CompletedNeedsCorrection(t *testing.T) {
	f := newFixture(t)
	tour, _ := f.tournament(t, singleElimination("Done"), 4)
	view := f.build(t, tour.ID)
	res := f.play(t, view.Stage.ID, "KR1M1", 1)

	_, err := f.matches.UpdateMatch(context.Background(), UpdateMatchInput{
		MatchID: res.Match.ID,
		Version: res.Match.Version,
		Score2:  models.IntPtr(4),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "use a correction")
}

func TestStartMatch_TableInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, singleElimination("Tables"), 4)
	view := f.build(t, tour.ID)
	first := f.match(t, view.Stage.ID, "KR1M1")
	second := f.match(t, view.Stage.ID, "KR1M2")

	started, err := f.matches.StartMatch(ctx, first.ID, first.Version, models.IntPtr(3), "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchInProgress, started.Status)
	require.NotNil(t, started.TableID)
	assert.Equal(t, 3, *started.TableID)

	_, err = f.matches.StartMatch(ctx, second.ID, second.Version, models.IntPtr(3), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "table 3 is already used by match")

	f.play(t, view.Stage.ID, "KR1M1", 1)
	started, err = f.matches.StartMatch(ctx, second.ID, second.Version, models.IntPtr(3), "")
	require.NoError(t, err)
	assert.Equal(t, 3, *started.TableID)

	busy, err := f.matches.ListMatches(ctx, repositories.MatchFilter{TournamentID: tour.ID, TableID: models.IntPtr(3)})
	require.NoError(t, err)
	assert.Len(t, busy, 2)
}

func TestMatchLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, singleElimination("Locks"), 4)
	view := f.build(t, tour.ID)
	m := f.match(t, view.Stage.ID, "KR1M1")

	_, err := f.matches.AcquireLock(ctx, m.ID, "")
	assert.ErrorIs(t, err, ErrValidationFailed)

	lock, err := f.matches.AcquireLock(ctx, m.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", lock.Holder)
	assert.Equal(t, f.clock.Now().Add(testLockTTL), lock.ExpiresAt)

	_, err = f.matches.AcquireLock(ctx, m.ID, "bob")
	var locked *MatchLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, "alice", locked.Holder)
	assert.Equal(t, lock.LockID, locked.LockID)

	_, err = f.matches.UpdateMatch(ctx, UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score1: models.IntPtr(1), Actor: "bob"})
	assert.ErrorIs(t, err, ErrMatchLocked)
	_, err = f.matches.UpdateMatch(ctx, UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score1: models.IntPtr(1)})
	assert.ErrorIs(t, err, ErrMatchLocked, "anonymous writes are blocked too")

	res, err := f.matches.UpdateMatch(ctx, UpdateMatchInput{MatchID: m.ID, Version: m.Version, Score1: models.IntPtr(1), Actor: "alice"})
	require.NoError(t, err)

	err = f.matches.ReleaseLock(ctx, m.ID, "not-the-lock")
	assert.ErrorIs(t, err, ErrMatchLocked)

	require.NoError(t, f.matches.ReleaseLock(ctx, m.ID, lock.LockID))
	current, err := f.matches.GetLock(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = f.matches.UpdateMatch(ctx, UpdateMatchInput{MatchID: m.ID, Version: res.Match.Version, Score1: models.IntPtr(2), Actor: "bob"})
	assert.NoError(t, err)
}

func TestMatchLock_Expires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, singleElimination("Expiry"), 4)
	view := f.build(t, tour.ID)
	m := f.match(t, view.Stage.ID, "KR1M1")

	_, err := f.matches.AcquireLock(ctx, m.ID, "alice")
	require.NoError(t, err)

	f.clock.Advance(testLockTTL)

	current, err := f.matches.GetLock(ctx, m.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	lock, err := f.matches.AcquireLock(ctx, m.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", lock.Holder)
}

// finishFourPlayerKnockout plays KR1M1 (seed 1 wins), KR1M2 (seed 2 wins) and
// the final (seed 1 wins).
func finishFourPlayerKnockout(t *testing.T, f *fixture, stageID int) {
	t.Helper()
	f.play(t, stageID, "KR1M1", 1)
	f.play(t, stageID, "KR1M2", 1)
	f.play(t, stageID, "KR2M1", 1)
}

func TestCorrectMatch_SameWinnerKeepsDownstream(t *testing.T) {
	f := newFixture(t)
	tour, players := f.tournament(t, singleElimination("Typo"), 4)
	view := f.build(t, tour.ID)
	stageID := view.Stage.ID
	finishFourPlayerKnockout(t, f, stageID)

	semi := f.match(t, stageID, "KR1M1")
	finalBefore := f.match(t, stageID, "KR2M1")

	res, err := f.matches.CorrectMatch(context.Background(), CorrectMatchInput{
		MatchID: semi.ID,
		Version: semi.Version,
		Score1:  models.IntPtr(5),
		Score2:  models.IntPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, *res.Match.Score2)
	assert.Equal(t, players[0].ID, *res.Match.WinnerID)
	assert.Equal(t, semi.Version+1, res.Match.Version)
	assert.Empty(t, res.Rewound)
	assert.Empty(t, res.Changed)
	assert.Empty(t, res.DiscardedResults)

	finalAfter := f.match(t, stageID, "KR2M1")
	assert.Equal(t, finalBefore.Version, finalAfter.Version)
	assert.Equal(t, models.MatchCompleted, finalAfter.Status)
	assert.Equal(t, models.EventMatchCorrected, f.notifier.Last(t).Type)
}

func TestCorrectMatch_RewindRequiresAcknowledgement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, players := f.tournament(t, singleElimination("Rewind"), 4)
	view := f.build(t, tour.ID)
	stageID := view.Stage.ID
	finishFourPlayerKnockout(t, f, stageID)

	semi := f.match(t, stageID, "KR1M1")
	final := f.match(t, stageID, "KR2M1")
	flip := CorrectMatchInput{
		MatchID: semi.ID,
		Version: semi.Version,
		Score1:  models.IntPtr(2),
		Score2:  models.IntPtr(5),
	}

	_, err := f.matches.CorrectMatch(ctx, flip)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrectionConflict)
	var conflict *CorrectionConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []int{final.ID}, conflict.AffectedMatchIDs())
	assert.Equal(t, models.MatchCompleted, conflict.Affected[0].PreviousStatus)
	assert.Equal(t, players[0].ID, *conflict.Affected[0].PreviousWinner)

	// nothing was written
	assert.Equal(t, semi.Version, f.match(t, stageID, "KR1M1").Version)
	assert.True(t, f.match(t, stageID, "KR2M1").IsCompleted())

	flip.AcknowledgeDownstreamResults = true
	res, err := f.matches.CorrectMatch(ctx, flip)
	require.NoError(t, err)
	assert.Equal(t, players[3].ID, *res.Match.WinnerID)
	require.Len(t, res.DiscardedResults, 1)
	assert.Equal(t, final.ID, res.DiscardedResults[0].MatchID)
	require.Len(t, res.Changed, 1)

	final = f.match(t, stageID, "KR2M1")
	assert.Equal(t, models.MatchNotStarted, final.Status)
	assert.Nil(t, final.WinnerID)
	assert.Nil(t, final.Score1)
	assert.Equal(t, players[3].ID, playerID(final, 1))
	assert.Equal(t, players[1].ID, playerID(final, 2))

	// flipping back touches only an unplayed final, so no acknowledgement is needed
	semi = f.match(t, stageID, "KR1M1")
	res, err = f.matches.CorrectMatch(ctx, CorrectMatchInput{
		MatchID:  semi.ID,
		Version:  semi.Version,
		WinnerID: models.IntPtr(players[0].ID),
		Score1:   models.IntPtr(5),
		Score2:   models.IntPtr(2),
	})
	require.NoError(t, err)
	assert.Empty(t, res.DiscardedResults)
	require.Len(t, res.Rewound, 1)
	assert.False(t, res.Rewound[0].Manual)
	assert.Equal(t, players[0].ID, playerID(f.match(t, stageID, "KR2M1"), 1))
}

func TestCorrectMatch_DoubleEliminationReroutesLoser(t *testing.T) {
	f := newFixture(t)
	tour, players := f.tournament(t, doubleElimination("Reroute"), 4)
	view := f.build(t, tour.ID)
	stageID := view.Stage.ID

	f.play(t, stageID, "WR1M1", 1)
	f.play(t, stageID, "WR1M2", 1)

	semi := f.match(t, stageID, "WR1M1")
	require.Equal(t, players[0].ID, *semi.WinnerID)

	res, err := f.matches.CorrectMatch(context.Background(), CorrectMatchInput{
		MatchID: semi.ID,
		Version: semi.Version,
		Score1:  models.IntPtr(3),
		Score2:  models.IntPtr(5),
	})
	require.NoError(t, err)
	assert.Empty(t, res.DiscardedResults)
	assert.Len(t, res.Rewound, 2)

	wb := f.match(t, stageID, "WR2M1")
	lb := f.match(t, stageID, "LR1M1")
	wbSlot := wb.SlotSourcedFrom(models.SourceWinnerOf, semi.ID)
	lbSlot := lb.SlotSourcedFrom(models.SourceLoserOf, semi.ID)
	require.NotZero(t, wbSlot)
	require.NotZero(t, lbSlot)
	assert.Equal(t, players[3].ID, playerID(wb, wbSlot))
	assert.Equal(t, players[0].ID, playerID(lb, lbSlot))
}

func TestCorrectMatch_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, singleElimination("Nothing to fix"), 5)
	view := f.build(t, tour.ID)
	stageID := view.Stage.ID

	open := f.match(t, stageID, "KR1M2")
	_, err := f.matches.CorrectMatch(ctx, CorrectMatchInput{MatchID: open.ID, Version: open.Version, Score1: models.IntPtr(5), Score2: models.IntPtr(1)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Contains(t, err.Error(), "no recorded result to correct")

	bye := f.match(t, stageID, "KR1M1")
	_, err = f.matches.CorrectMatch(ctx, CorrectMatchInput{MatchID: bye.ID, Version: bye.Version, WinnerID: bye.WinnerID})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.matches.CorrectMatch(ctx, CorrectMatchInput{MatchID: 9999, Version: 1})
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSettle_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, doubleElimination("Settled"), 5)
	view := f.build(t, tour.ID)
	before := f.stageMatches(t, view.Stage.ID)
	events := len(f.notifier.Events())

	changed, err := f.matches.Settle(ctx, view.Stage.ID)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Equal(t, before, f.stageMatches(t, view.Stage.ID))
	assert.Len(t, f.notifier.Events(), events)

	_, err = f.matches.Settle(ctx, 9999)
	assert.ErrorIs(t, err, ErrStageNotFound)
}

func TestListMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tour, _ := f.tournament(t, doubleElimination("Filters"), 4)
	f.build(t, tour.ID)

	losers := models.SideLosers
	matches, err := f.matches.ListMatches(ctx, repositories.MatchFilter{TournamentID: tour.ID, Side: &losers})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		assert.Equal(t, models.SideLosers, m.BracketSide)
	}

	_, err = f.matches.ListMatches(ctx, repositories.MatchFilter{TournamentID: 404})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
