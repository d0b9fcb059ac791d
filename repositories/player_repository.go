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
	ErrPlayerNotFound          = errors.New("tournament player not found")
	ErrPlayerSeedConflict      = errors.New("seed already taken in this tournament")
	ErrPlayerNameConflict      = errors.New("player already registered in this tournament")
	ErrPlayerTournamentInvalid = errors.New("player references an unknown tournament")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.TournamentPlayer) error
	GetByID(ctx context.Context, id int) (*models.TournamentPlayer, error)
	// ListByTournament returns players in registration order; statusFilter nil means all.
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.PlayerStatus) ([]*models.TournamentPlayer, error)
}

type postgresPlayerRepository struct {
	exec SQLExecutor
}

func NewPostgresPlayerRepository(exec SQLExecutor) PlayerRepository {
	return &postgresPlayerRepository{exec: exec}
}

const playerColumns = `id, tournament_id, name, seed, status, created_at`

func (r *postgresPlayerRepository) Create(ctx context.Context, p *models.TournamentPlayer) error {
	if p.Status == "" {
		p.Status = models.PlayerPending
	}
	query := `
		INSERT INTO tournament_players (tournament_id, name, seed, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query, p.TournamentID, p.Name, p.Seed, p.Status).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				switch pqErr.Constraint {
				case "tournament_players_tournament_id_seed_key":
					return ErrPlayerSeedConflict
				case "tournament_players_tournament_id_name_key":
					return ErrPlayerNameConflict
				}
			case "23503": // foreign_key_violation
				if pqErr.Constraint == "tournament_players_tournament_id_fkey" {
					return ErrPlayerTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create tournament player: %w", err)
	}
	return nil
}

func (r *postgresPlayerRepository) scanPlayer(row rowScanner, p *models.TournamentPlayer) error {
	var seed sql.NullInt64
	if err := row.Scan(&p.ID, &p.TournamentID, &p.Name, &seed, &p.Status, &p.CreatedAt); err != nil {
		return err
	}
	p.Seed = nullIntToPtr(seed)
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.TournamentPlayer, error) {
	query := `SELECT ` + playerColumns + ` FROM tournament_players WHERE id = $1`
	p := &models.TournamentPlayer{}
	if err := r.scanPlayer(r.exec.QueryRowContext(ctx, query, id), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to find tournament player: %w", err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.PlayerStatus) ([]*models.TournamentPlayer, error) {
	query := `SELECT ` + playerColumns + ` FROM tournament_players WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if statusFilter != nil {
		query += ` AND status = $2`
		args = append(args, *statusFilter)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	players := make([]*models.TournamentPlayer, 0)
	for rows.Next() {
		p := &models.TournamentPlayer{}
		if err := r.scanPlayer(rows, p); err != nil {
			return nil, fmt.Errorf("failed to scan tournament player row: %w", err)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament player rows: %w", err)
	}
	return players, nil
}
