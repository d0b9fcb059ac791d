package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

func TestComputeStandings_SingleElimination(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 2, 3, 4))
	complete(t, a, byUID(t, a, "KR1M1"), 1)
	complete(t, a, byUID(t, a, "KR1M2"), 2)
	complete(t, a, byUID(t, a, "KR2M1"), 2)

	standings, err := ComputeStandings(a, 2)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	assert.Equal(t, 4, standings[0].PlayerID)
	assert.Equal(t, 1, standings[0].Place)
	assert.Equal(t, 2, standings[0].Wins)
	assert.Nil(t, standings[0].EliminatedInMatchID)
	assert.True(t, standings[0].Advances)

	assert.Equal(t, 1, standings[1].PlayerID)
	assert.Equal(t, 2, standings[1].Place)
	assert.True(t, standings[1].Advances)

	// semifinal losers share third place
	assert.Equal(t, 3, standings[2].Place)
	assert.Equal(t, 3, standings[3].Place)
	assert.ElementsMatch(t, []int{2, 3}, []int{standings[2].PlayerID, standings[3].PlayerID})
	assert.False(t, standings[2].Advances)
}

func TestComputeStandings_DoubleEliminationWithBye(t *testing.T) {
	a := materialize(t, models.BracketDoubleElimination, slotsOf(1, 0, 2, 3))
	require.NoError(t, Settle(a))
	playOut(t, a)

	standings, err := ComputeStandings(a, 0)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	got := []int{standings[0].PlayerID, standings[1].PlayerID, standings[2].PlayerID}
	assert.Equal(t, []int{1, 3, 2}, got)
	assert.Equal(t, []int{1, 2, 3}, []int{standings[0].Place, standings[1].Place, standings[2].Place})
	for _, s := range standings {
		assert.False(t, s.Advances)
	}
	// byes are not counted as wins
	assert.Equal(t, 1, standings[1].Wins)
	assert.Equal(t, 2, standings[1].Losses)
}

func TestComputeStandings_StageRunning(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 2, 3, 4))
	complete(t, a, byUID(t, a, "KR1M1"), 1)

	_, err := ComputeStandings(a, 0)
	assert.ErrorIs(t, err, ErrStageRunning)

	_, err = ComputeStandings(NewArena(nil), 0)
	assert.ErrorIs(t, err, ErrStageRunning)
}

func TestComputeStandings_CutoffInsideSharedPlace(t *testing.T) {
	a := materialize(t, models.BracketSingleElimination, slotsOf(1, 2, 3, 4))
	first := byUID(t, a, "KR1M1")
	complete(t, a, first, 1)
	first.Score2 = models.IntPtr(1)
	second := byUID(t, a, "KR1M2")
	complete(t, a, second, 1)
	second.Score2 = models.IntPtr(4)
	complete(t, a, byUID(t, a, "KR2M1"), 1)

	standings, err := ComputeStandings(a, 3)
	require.NoError(t, err)
	require.Len(t, standings, 4)

	// both semifinal losers share third place; the one with more racks takes the last spot
	assert.Equal(t, []int{1, 3, 4, 2}, []int{standings[0].PlayerID, standings[1].PlayerID, standings[2].PlayerID, standings[3].PlayerID})
	assert.Equal(t, 3, standings[2].Place)
	assert.Equal(t, 3, standings[3].Place)
	assert.True(t, standings[2].Advances)
	assert.False(t, standings[3].Advances)

	advancing := 0
	for _, s := range standings {
		if s.Advances {
			advancing++
		}
	}
	assert.Equal(t, 3, advancing)
}
