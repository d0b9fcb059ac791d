package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// Store groups the repositories the bracket engine works with. WithinTx runs fn
// against repositories bound to a single transaction: everything fn writes is
// committed together, or nothing is when fn returns an error.
type Store interface {
	Tournaments() TournamentRepository
	Stages() StageRepository
	Players() PlayerRepository
	Matches() MatchRepository
	Standings() StandingRepository

	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type PostgresStore struct {
	db   *sql.DB
	exec SQLExecutor
	inTx bool
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, exec: db}
}

func (s *PostgresStore) Tournaments() TournamentRepository {
	return NewPostgresTournamentRepository(s.exec)
}

func (s *PostgresStore) Stages() StageRepository {
	return NewPostgresStageRepository(s.exec)
}

func (s *PostgresStore) Players() PlayerRepository {
	return NewPostgresPlayerRepository(s.exec)
}

func (s *PostgresStore) Matches() MatchRepository {
	return NewPostgresMatchRepository(s.exec)
}

func (s *PostgresStore) Standings() StandingRepository {
	return NewPostgresStandingRepository(s.exec)
}

// WithinTx joins the running transaction when called on a transactional store.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			if commitErr := tx.Commit(); commitErr != nil {
				err = fmt.Errorf("failed to commit transaction: %w", commitErr)
			}
		}
	}()

	err = fn(ctx, &PostgresStore{db: s.db, exec: tx, inTx: true})
	return err
}
