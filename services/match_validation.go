package services

import (
	"context"

	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
)

// Правила, общие для обновления и исправления результата матча.

func validateVersion(version int64) error {
	if version <= 0 {
		return validationError("version token is required")
	}
	return nil
}

func validateDistinctPlayers(m *models.Match) error {
	if m.Slot1.Filled() && m.Slot2.Filled() && *m.Slot1.PlayerID == *m.Slot2.PlayerID {
		return validationError("same player occupies both slots")
	}
	return nil
}

func validateScores(m *models.Match, score1, score2 *int) error {
	for i, score := range []*int{score1, score2} {
		n := i + 1
		if score == nil {
			continue
		}
		if !m.Slot(n).Filled() {
			return validationError("cannot record a score for slot %d: empty slot", n)
		}
		if *score < 0 {
			return validationError("score cannot be negative")
		}
		if *score > m.RaceTo {
			return validationError("score cannot exceed race-to (%d)", m.RaceTo)
		}
	}
	return nil
}

// resolveWinner returns the explicit winner, or the only player whose score
// reached race-to. nil means the match has no winner yet.
func resolveWinner(m *models.Match, score1, score2, winnerID *int) (*int, error) {
	if winnerID != nil {
		if !m.HasPlayer(*winnerID) {
			return nil, validationError("winner must be one of the two match players")
		}
		return models.IntPtr(*winnerID), nil
	}

	first := score1 != nil && *score1 == m.RaceTo
	second := score2 != nil && *score2 == m.RaceTo
	switch {
	case first && second:
		return nil, validationError("both players cannot reach race-to")
	case first:
		return models.IntPtr(*m.Slot1.PlayerID), nil
	case second:
		return models.IntPtr(*m.Slot2.PlayerID), nil
	}
	return nil, nil
}

func validateCompletion(m *models.Match, score1, score2 *int, winnerID int) error {
	if !m.Slot1.Filled() || !m.Slot2.Filled() {
		return validationError("cannot complete a match with an empty slot")
	}
	if score1 == nil || score2 == nil {
		return nil
	}
	winnerScore, loserScore := *score1, *score2
	if *m.Slot2.PlayerID == winnerID {
		winnerScore, loserScore = loserScore, winnerScore
	}
	if winnerScore <= loserScore {
		return validationError("winner must have won more games than the loser")
	}
	return nil
}

// checkTable rejects a table that another unfinished match of the tournament uses.
func checkTable(ctx context.Context, tx repositories.Store, m *models.Match, tableID int) error {
	if tableID <= 0 {
		return validationError("table id must be positive")
	}
	busy, err := tx.Matches().ListByTournament(ctx, repositories.MatchFilter{
		TournamentID: m.TournamentID,
		TableID:      &tableID,
		Statuses:     []models.MatchStatus{models.MatchNotStarted, models.MatchInProgress},
	})
	if err != nil {
		return err
	}
	for _, other := range busy {
		if other.ID != m.ID {
			return validationError("table %d is already used by match %d", tableID, other.ID)
		}
	}
	return nil
}
