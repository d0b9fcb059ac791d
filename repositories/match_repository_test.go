package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

func TestMatchFilterQuery(t *testing.T) {
	stage, round := 3, 2
	side := models.SideLosers

	query, args, err := matchFilterQuery(MatchFilter{
		TournamentID: 1,
		StageID:      &stage,
		Side:         &side,
		Round:        &round,
		Statuses:     []models.MatchStatus{models.MatchNotStarted, models.MatchInProgress},
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "FROM matches WHERE tournament_id = $1 AND stage_id = $2 AND bracket_side = $3 AND round = $4 AND status IN ($5,$6)")
	assert.Contains(t, query, "ORDER BY stage_id, id")
	assert.Equal(t, []interface{}{1, 3, models.SideLosers, 2, "not_started", "in_progress"}, args)
}

func TestMatchFilterQuery_TournamentOnly(t *testing.T) {
	query, args, err := matchFilterQuery(MatchFilter{TournamentID: 9}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE tournament_id = $1 ORDER BY")
	assert.Equal(t, []interface{}{9}, args)
}
