package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

var (
	ErrStageNotFound          = errors.New("tournament stage not found")
	ErrStageNumberConflict    = errors.New("stage number already exists for this tournament")
	ErrStageTournamentInvalid = errors.New("stage references an unknown tournament")
)

type StageRepository interface {
	Create(ctx context.Context, stage *models.TournamentStage) error
	GetByID(ctx context.Context, id int) (*models.TournamentStage, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentStage, error)
	UpdateStatus(ctx context.Context, id int, status models.StageStatus) error
}

type postgresStageRepository struct {
	exec SQLExecutor
}

func NewPostgresStageRepository(exec SQLExecutor) StageRepository {
	return &postgresStageRepository{exec: exec}
}

const stageColumns = `id, tournament_id, stage_number, bracket_type, ordering, advance_count, status, created_at`

func (r *postgresStageRepository) Create(ctx context.Context, s *models.TournamentStage) error {
	if s.Status == "" {
		s.Status = models.StageNotStarted
	}
	query := `
		INSERT INTO tournament_stages (tournament_id, stage_number, bracket_type, ordering, advance_count, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query,
		s.TournamentID, s.StageNumber, s.BracketType, s.Ordering, s.AdvanceCount, s.Status,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "tournament_stages_tournament_id_stage_number_key" {
					return ErrStageNumberConflict
				}
			case "23503":
				if pqErr.Constraint == "tournament_stages_tournament_id_fkey" {
					return ErrStageTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create tournament stage: %w", err)
	}
	return nil
}

func (r *postgresStageRepository) scanStage(row rowScanner, s *models.TournamentStage) error {
	var advanceCount sql.NullInt64
	if err := row.Scan(&s.ID, &s.TournamentID, &s.StageNumber, &s.BracketType, &s.Ordering, &advanceCount, &s.Status, &s.CreatedAt); err != nil {
		return err
	}
	s.AdvanceCount = nullIntToPtr(advanceCount)
	return nil
}

func (r *postgresStageRepository) GetByID(ctx context.Context, id int) (*models.TournamentStage, error) {
	query := `SELECT ` + stageColumns + ` FROM tournament_stages WHERE id = $1`
	s := &models.TournamentStage{}
	if err := r.scanStage(r.exec.QueryRowContext(ctx, query, id), s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStageNotFound
		}
		return nil, fmt.Errorf("failed to get stage by id %d: %w", id, err)
	}
	return s, nil
}

func (r *postgresStageRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentStage, error) {
	query := `SELECT ` + stageColumns + ` FROM tournament_stages WHERE tournament_id = $1 ORDER BY stage_number`
	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	stages := make([]*models.TournamentStage, 0, 2)
	for rows.Next() {
		s := &models.TournamentStage{}
		if err := r.scanStage(rows, s); err != nil {
			return nil, fmt.Errorf("failed to scan stage row: %w", err)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *postgresStageRepository) UpdateStatus(ctx context.Context, id int, status models.StageStatus) error {
	result, err := r.exec.ExecContext(ctx, `UPDATE tournament_stages SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update stage status: %w", err)
	}
	return checkAffectedRows(result, ErrStageNotFound)
}
