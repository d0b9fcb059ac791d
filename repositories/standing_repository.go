package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

var ErrStandingStageInvalid = errors.New("standing references an unknown stage")

// StandingRepository stores the placements frozen when a stage completes.
type StandingRepository interface {
	// ReplaceForStage drops the stage's stored standings and writes the given ones.
	ReplaceForStage(ctx context.Context, stageID int, standings []models.Standing) error
	ListByStage(ctx context.Context, stageID int) ([]models.Standing, error)
}

type postgresStandingRepository struct {
	exec SQLExecutor
}

func NewPostgresStandingRepository(exec SQLExecutor) StandingRepository {
	return &postgresStandingRepository{exec: exec}
}

func (r *postgresStandingRepository) ReplaceForStage(ctx context.Context, stageID int, standings []models.Standing) error {
	if _, err := r.exec.ExecContext(ctx, `DELETE FROM stage_standings WHERE stage_id = $1`, stageID); err != nil {
		return fmt.Errorf("failed to clear standings of stage %d: %w", stageID, err)
	}

	query := `
		INSERT INTO stage_standings
		    (tournament_id, stage_id, player_id, place, wins, losses, eliminated_in_match_id, advances)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, s := range standings {
		_, err := r.exec.ExecContext(ctx, query,
			s.TournamentID, stageID, s.PlayerID, s.Place, s.Wins, s.Losses, s.EliminatedInMatchID, s.Advances,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23503" && pqErr.Constraint == "stage_standings_stage_id_fkey" {
				return ErrStandingStageInvalid
			}
			return fmt.Errorf("failed to save standing of player %d: %w", s.PlayerID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) ListByStage(ctx context.Context, stageID int) ([]models.Standing, error) {
	query := `
		SELECT tournament_id, stage_id, player_id, place, wins, losses, eliminated_in_match_id, advances
		FROM stage_standings
		WHERE stage_id = $1
		ORDER BY place, wins DESC, player_id`
	rows, err := r.exec.QueryContext(ctx, query, stageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of stage %d: %w", stageID, err)
	}
	defer rows.Close()

	standings := make([]models.Standing, 0)
	for rows.Next() {
		var (
			s          models.Standing
			eliminated sql.NullInt64
		)
		if err := rows.Scan(&s.TournamentID, &s.StageID, &s.PlayerID, &s.Place, &s.Wins, &s.Losses, &eliminated, &s.Advances); err != nil {
			return nil, fmt.Errorf("failed to scan standing row: %w", err)
		}
		s.EliminatedInMatchID = nullIntToPtr(eliminated)
		standings = append(standings, s)
	}
	return standings, rows.Err()
}
