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
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentNameConflict = errors.New("tournament name already taken")
	ErrTournamentInvalid      = errors.New("tournament violates a table constraint")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	exec SQLExecutor
}

func NewPostgresTournamentRepository(exec SQLExecutor) TournamentRepository {
	return &postgresTournamentRepository{exec: exec}
}

const tournamentColumns = `id, name, bracket_type, is_multi_stage, advance_count, stage1_ordering, stage2_ordering,
	winners_race_to, losers_race_to, finals_race_to, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(name, bracket_type, is_multi_stage, advance_count, stage1_ordering, stage2_ordering,
			 winners_race_to, losers_race_to, finals_race_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query,
		t.Name,
		t.BracketType,
		t.IsMultiStage,
		t.AdvanceCount,
		t.Stage1Ordering,
		t.Stage2Ordering,
		t.WinnersRaceTo,
		t.LosersRaceTo,
		t.FinalsRaceTo,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "tournaments_name_key" {
					return ErrTournamentNameConflict
				}
			case "23514": // check_violation
				return fmt.Errorf("%w: %s", ErrTournamentInvalid, pqErr.Constraint)
			}
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) scanTournament(row rowScanner, t *models.Tournament) error {
	var advanceCount sql.NullInt64
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.BracketType,
		&t.IsMultiStage,
		&advanceCount,
		&t.Stage1Ordering,
		&t.Stage2Ordering,
		&t.WinnersRaceTo,
		&t.LosersRaceTo,
		&t.FinalsRaceTo,
		&t.CreatedAt,
	)
	if err != nil {
		return err
	}
	t.AdvanceCount = nullIntToPtr(advanceCount)
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	t := &models.Tournament{}
	if err := r.scanTournament(r.exec.QueryRowContext(ctx, query, id), t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.exec.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t := &models.Tournament{}
		if err := r.scanTournament(rows, t); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}
