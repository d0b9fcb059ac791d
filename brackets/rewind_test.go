package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

func TestRewind_ClearsPlayedDownstreamMatch(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 2, 3, 4))
	semi := byUID(t, a, "KR1M1")
	complete(t, a, semi, 1)
	complete(t, a, byUID(t, a, "KR1M2"), 2)
	final := byUID(t, a, "KR2M1")
	complete(t, a, final, 1)

	rewound, err := Rewind(a, semi.ID)
	require.NoError(t, err)
	require.Len(t, rewound, 1)

	r := rewound[0]
	assert.Equal(t, final.ID, r.MatchID)
	assert.Equal(t, []int{1}, r.ClearedSlots)
	assert.Equal(t, models.MatchCompleted, r.PreviousStatus)
	assert.Equal(t, 1, *r.PreviousWinner)
	assert.True(t, r.Manual)
	assert.Len(t, ManualResults(rewound), 1)

	assert.Nil(t, final.Slot1.PlayerID)
	assert.Equal(t, 4, *final.Slot2.PlayerID)
	assert.Equal(t, models.MatchNotStarted, final.Status)
	assert.Nil(t, final.WinnerID)
	assert.Nil(t, final.Score1)

	// the rewound match keeps its own result
	assert.True(t, semi.IsCompleted())
}

func TestRewind_ThroughByesThenSettleRestores(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 0, 0, 0, 2, 0, 0, 0))
	require.NoError(t, Settle(a))
	first := byUID(t, a, "KR1M1")

	rewound, err := Rewind(a, first.ID)
	require.NoError(t, err)
	require.Len(t, rewound, 2)
	assert.Empty(t, ManualResults(rewound))

	final := byUID(t, a, "KR3M1")
	assert.Nil(t, final.Slot1.PlayerID)
	assert.False(t, byUID(t, a, "KR2M1").IsCompleted())

	require.NoError(t, Settle(a))
	assert.Equal(t, 1, *final.Slot1.PlayerID)
}

func TestRewind_RequiresResult(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 2, 3, 4))
	_, err := Rewind(a, byUID(t, a, "KR1M1").ID)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestRewind_DoubleEliminationFollowsLoserRoute(t *testing.T) {
	a := materialize(t, models.BracketDoubleElimination, slotsOf(1, 2, 3, 4))
	wr1 := byUID(t, a, "WR1M1")
	complete(t, a, wr1, 1)
	complete(t, a, byUID(t, a, "WR1M2"), 1)
	complete(t, a, byUID(t, a, "LR1M1"), 1)

	rewound, err := Rewind(a, wr1.ID)
	require.NoError(t, err)

	ids := make(map[int][]int)
	for _, r := range rewound {
		ids[r.MatchID] = r.ClearedSlots
	}
	assert.Equal(t, []int{1}, ids[byUID(t, a, "WR2M1").ID])
	assert.Equal(t, []int{1}, ids[byUID(t, a, "LR1M1").ID])
	// LR1M1 was played, so its winner is pulled out of LR2M1 as well
	assert.Equal(t, []int{1}, ids[byUID(t, a, "LR2M1").ID])
	assert.Len(t, ManualResults(rewound), 1)
}

// correct rewinds m and records a new win for slot n, the way a correction does.
func correct(t *testing.T, a *Arena, m *models.Match, n int) []RewoundMatch {
	t.Helper()
	rewound, err := Rewind(a, m.ID)
	require.NoError(t, err)
	complete(t, a, m, n)
	return rewound
}

func slotFills(a *Arena) map[string][2]int {
	fills := make(map[string][2]int)
	for _, m := range a.Matches() {
		var f [2]int
		if m.Slot1.PlayerID != nil {
			f[0] = *m.Slot1.PlayerID
		}
		if m.Slot2.PlayerID != nil {
			f[1] = *m.Slot2.PlayerID
		}
		fills[m.BracketUID] = f
	}
	return fills
}

func TestRewind_ReachesEveryRoundTheResultWent(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 2, 3, 4, 5, 6, 7, 8))
	first := byUID(t, a, "KR1M1")
	complete(t, a, first, 1)
	complete(t, a, byUID(t, a, "KR1M2"), 1)
	complete(t, a, byUID(t, a, "KR1M3"), 1)
	complete(t, a, byUID(t, a, "KR1M4"), 1)
	complete(t, a, byUID(t, a, "KR2M1"), 1)
	complete(t, a, byUID(t, a, "KR2M2"), 1)

	final := byUID(t, a, "KR3M1")
	require.Equal(t, 1, *final.Slot1.PlayerID)

	rewound := correct(t, a, first, 2)
	require.Len(t, rewound, 2)

	semi := byUID(t, a, "KR2M1")
	assert.Equal(t, models.MatchNotStarted, semi.Status)
	assert.Equal(t, 2, *semi.Slot1.PlayerID)
	assert.Equal(t, 3, *semi.Slot2.PlayerID)
	assert.Nil(t, semi.WinnerID)

	assert.Nil(t, final.Slot1.PlayerID)
	assert.Equal(t, 5, *final.Slot2.PlayerID)
	assert.True(t, byUID(t, a, "KR2M2").IsCompleted())
}

func TestRewind_CorrectionRoundTripRestoresFills(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 2, 3, 4, 5, 6, 7, 8))
	first := byUID(t, a, "KR1M1")
	complete(t, a, first, 1)
	complete(t, a, byUID(t, a, "KR1M2"), 1)
	complete(t, a, byUID(t, a, "KR1M3"), 2)
	before := slotFills(a)

	rewound := correct(t, a, first, 2)
	assert.Empty(t, ManualResults(rewound))
	assert.Equal(t, 2, *byUID(t, a, "KR2M1").Slot1.PlayerID)

	rewound = correct(t, a, first, 1)
	assert.Empty(t, ManualResults(rewound))
	assert.Equal(t, before, slotFills(a))
	assert.Equal(t, 1, *first.WinnerID)
}
