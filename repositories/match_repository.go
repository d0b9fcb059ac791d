package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/tonnahe171051/poolmate-sub002/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchVersionConflict = errors.New("match was modified by another client")
	ErrMatchDuplicate       = errors.New("match already exists at this bracket position")
	ErrMatchStageInvalid    = errors.New("match references an unknown stage or tournament")
)

// MatchFilter narrows ListByTournament. Zero values mean "any".
type MatchFilter struct {
	TournamentID int
	StageID      *int
	Side         *models.BracketSide
	Round        *int
	TableID      *int
	Statuses     []models.MatchStatus
}

type MatchRepository interface {
	// CreateBatch inserts new matches, setting ID, Version and timestamps on each.
	CreateBatch(ctx context.Context, matches []*models.Match) error
	// UpdateLinks stores the forward links and slot source ids of a freshly created
	// match. It is part of construction and does not bump the version.
	UpdateLinks(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Match, error)
	ListByTournament(ctx context.Context, filter MatchFilter) ([]*models.Match, error)
	CountByStage(ctx context.Context, stageID int) (int, error)
	// UpdateVersioned writes the mutable state of match if its stored version still
	// equals match.Version, then increments match.Version. A stale version yields
	// ErrMatchVersionConflict.
	UpdateVersioned(ctx context.Context, match *models.Match) error
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var matchColumnList = []string{
	"id", "tournament_id", "stage_id", "bracket_side", "round", "position", "bracket_uid",
	"slot1_player_id", "slot1_source_type", "slot1_source_match_id",
	"slot2_player_id", "slot2_source_type", "slot2_source_match_id",
	"table_id", "race_to", "status", "score1", "score2", "winner_id",
	"next_winner_match_id", "next_loser_match_id", "version", "created_at", "updated_at",
}

type postgresMatchRepository struct {
	exec SQLExecutor
}

func NewPostgresMatchRepository(exec SQLExecutor) MatchRepository {
	return &postgresMatchRepository{exec: exec}
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	query := `
		INSERT INTO matches
			(tournament_id, stage_id, bracket_side, round, position, bracket_uid,
			 slot1_player_id, slot1_source_type, slot1_source_match_id,
			 slot2_player_id, slot2_source_type, slot2_source_match_id,
			 table_id, race_to, status, score1, score2, winner_id,
			 next_winner_match_id, next_loser_match_id, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, 1)
		RETURNING id, version, created_at, updated_at`

	for _, m := range matches {
		if m.Status == "" {
			m.Status = models.MatchNotStarted
		}
		err := r.exec.QueryRowContext(ctx, query,
			m.TournamentID, m.StageID, m.BracketSide, m.Round, m.Position, m.BracketUID,
			m.Slot1.PlayerID, m.Slot1.SourceType, m.Slot1.SourceMatchID,
			m.Slot2.PlayerID, m.Slot2.SourceType, m.Slot2.SourceMatchID,
			m.TableID, m.RaceTo, m.Status, m.Score1, m.Score2, m.WinnerID,
			m.NextWinnerMatchID, m.NextLoserMatchID,
		).Scan(&m.ID, &m.Version, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return r.handleMatchError(err, m.BracketUID)
		}
	}
	return nil
}

func (r *postgresMatchRepository) handleMatchError(err error, uid string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "matches_stage_id_bracket_uid_key" {
				return fmt.Errorf("%w: %s", ErrMatchDuplicate, uid)
			}
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_stage_id_fkey", "matches_tournament_id_fkey":
				return ErrMatchStageInvalid
			}
		}
	}
	return fmt.Errorf("failed to write match %s: %w", uid, err)
}

func (r *postgresMatchRepository) UpdateLinks(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches
		SET next_winner_match_id = $1, next_loser_match_id = $2,
		    slot1_source_match_id = $3, slot2_source_match_id = $4
		WHERE id = $5`
	result, err := r.exec.ExecContext(ctx, query,
		m.NextWinnerMatchID, m.NextLoserMatchID, m.Slot1.SourceMatchID, m.Slot2.SourceMatchID, m.ID)
	if err != nil {
		return r.handleMatchError(err, m.BracketUID)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	var (
		slot1Player, slot1Source, slot2Player, slot2Source sql.NullInt64
		tableID, score1, score2, winnerID                  sql.NullInt64
		nextWinner, nextLoser                              sql.NullInt64
	)
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.StageID, &m.BracketSide, &m.Round, &m.Position, &m.BracketUID,
		&slot1Player, &m.Slot1.SourceType, &slot1Source,
		&slot2Player, &m.Slot2.SourceType, &slot2Source,
		&tableID, &m.RaceTo, &m.Status, &score1, &score2, &winnerID,
		&nextWinner, &nextLoser, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Slot1.PlayerID = nullIntToPtr(slot1Player)
	m.Slot1.SourceMatchID = nullIntToPtr(slot1Source)
	m.Slot2.PlayerID = nullIntToPtr(slot2Player)
	m.Slot2.SourceMatchID = nullIntToPtr(slot2Source)
	m.TableID = nullIntToPtr(tableID)
	m.Score1 = nullIntToPtr(score1)
	m.Score2 = nullIntToPtr(score2)
	m.WinnerID = nullIntToPtr(winnerID)
	m.NextWinnerMatchID = nullIntToPtr(nextWinner)
	m.NextLoserMatchID = nullIntToPtr(nextLoser)
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query, args, err := psql.Select(matchColumnList...).From("matches").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build match query: %w", err)
	}
	m, err := r.scanMatch(r.exec.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByStage(ctx context.Context, stageID int) ([]*models.Match, error) {
	return r.list(ctx, psql.Select(matchColumnList...).From("matches").Where(sq.Eq{"stage_id": stageID}).OrderBy("id"))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	return r.list(ctx, matchFilterQuery(filter))
}

func matchFilterQuery(filter MatchFilter) sq.SelectBuilder {
	q := psql.Select(matchColumnList...).From("matches").Where(sq.Eq{"tournament_id": filter.TournamentID})
	if filter.StageID != nil {
		q = q.Where(sq.Eq{"stage_id": *filter.StageID})
	}
	if filter.Side != nil {
		q = q.Where(sq.Eq{"bracket_side": *filter.Side})
	}
	if filter.Round != nil {
		q = q.Where(sq.Eq{"round": *filter.Round})
	}
	if filter.TableID != nil {
		q = q.Where(sq.Eq{"table_id": *filter.TableID})
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where(sq.Eq{"status": statuses})
	}
	return q.OrderBy("stage_id", "id")
}

func (r *postgresMatchRepository) list(ctx context.Context, q sq.SelectBuilder) ([]*models.Match, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build match list query: %w", err)
	}
	rows, err := r.exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := r.scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CountByStage(ctx context.Context, stageID int) (int, error) {
	var count int
	err := r.exec.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE stage_id = $1`, stageID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches of stage %d: %w", stageID, err)
	}
	return count, nil
}

func (r *postgresMatchRepository) UpdateVersioned(ctx context.Context, m *models.Match) error {
	query := `
		UPDATE matches
		SET slot1_player_id = $1, slot2_player_id = $2, table_id = $3, status = $4,
		    score1 = $5, score2 = $6, winner_id = $7, version = version + 1, updated_at = $8
		WHERE id = $9 AND version = $10
		RETURNING version, updated_at`

	err := r.exec.QueryRowContext(ctx, query,
		m.Slot1.PlayerID, m.Slot2.PlayerID, m.TableID, m.Status,
		m.Score1, m.Score2, m.WinnerID, time.Now().UTC(),
		m.ID, m.Version,
	).Scan(&m.Version, &m.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return r.handleMatchError(err, m.BracketUID)
	}

	var exists bool
	if err := r.exec.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM matches WHERE id = $1)`, m.ID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check match %d existence: %w", m.ID, err)
	}
	if !exists {
		return ErrMatchNotFound
	}
	return fmt.Errorf("%w: match %d, version %d", ErrMatchVersionConflict, m.ID, m.Version)
}
