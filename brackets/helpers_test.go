package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

// slotsOf builds a round-1 roster; 0 marks an empty slot.
func slotsOf(ids ...int) []*int {
	slots := make([]*int, len(ids))
	for i, id := range ids {
		if id != 0 {
			slots[i] = models.IntPtr(id)
		}
	}
	return slots
}

// materialize generates a bracket and turns it into stored-looking matches with
// ids assigned in generation order.
func materialize(t *testing.T, bt models.BracketType, slots []*int) *Arena {
	t.Helper()
	gen, err := NewGenerator(bt)
	require.NoError(t, err)
	generated, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Slots: slots})
	require.NoError(t, err)

	ids := make(map[string]int, len(generated))
	for i, bm := range generated {
		ids[bm.UID] = i + 1
	}
	ref := func(uid string) *int {
		if uid == "" {
			return nil
		}
		id, ok := ids[uid]
		require.True(t, ok, "unknown uid %s", uid)
		return models.IntPtr(id)
	}

	matches := make([]*models.Match, 0, len(generated))
	for _, bm := range generated {
		matches = append(matches, &models.Match{
			ID:                ids[bm.UID],
			TournamentID:      1,
			StageID:           1,
			BracketSide:       bm.Side,
			Round:             bm.Round,
			Position:          bm.Position,
			BracketUID:        bm.UID,
			Slot1:             models.MatchSlot{PlayerID: bm.Slot1.PlayerID, SourceType: bm.Slot1.SourceType, SourceMatchID: ref(bm.Slot1.SourceUID)},
			Slot2:             models.MatchSlot{PlayerID: bm.Slot2.PlayerID, SourceType: bm.Slot2.SourceType, SourceMatchID: ref(bm.Slot2.SourceUID)},
			RaceTo:            5,
			Status:            models.MatchNotStarted,
			NextWinnerMatchID: ref(bm.NextWinnerUID),
			NextLoserMatchID:  ref(bm.NextLoserUID),
			Version:           1,
		})
	}
	return NewArena(matches)
}

func byUID(t *testing.T, a *Arena, uid string) *models.Match {
	t.Helper()
	for _, m := range a.Matches() {
		if m.BracketUID == uid {
			return m
		}
	}
	t.Fatalf("match %s not found", uid)
	return nil
}

// complete records a win for the player in slot n and propagates it.
func complete(t *testing.T, a *Arena, m *models.Match, n int) {
	t.Helper()
	winner := m.Slot(n).PlayerID
	require.NotNil(t, winner, "match %s slot %d is empty", m.BracketUID, n)
	m.Status = models.MatchCompleted
	m.WinnerID = models.IntPtr(*winner)
	if n == 1 {
		m.Score1, m.Score2 = models.IntPtr(m.RaceTo), models.IntPtr(0)
	} else {
		m.Score1, m.Score2 = models.IntPtr(0), models.IntPtr(m.RaceTo)
	}
	a.MarkChanged(m.ID)
	require.NoError(t, Advance(a, m.ID))
}

// playOut completes every playable match with slot 1 winning until nothing is left.
func playOut(t *testing.T, a *Arena) {
	t.Helper()
	for {
		progressed := false
		for _, m := range a.Matches() {
			if m.IsCompleted() || m.IsBye() || !m.Slot1.Filled() || !m.Slot2.Filled() {
				continue
			}
			complete(t, a, m, 1)
			progressed = true
		}
		if !progressed {
			return
		}
	}
}

func player(id int) *models.TournamentPlayer {
	return &models.TournamentPlayer{ID: id, TournamentID: 1, Name: "p", Status: models.PlayerConfirmed}
}
