package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonnahe171051/poolmate-sub002/brackets"
	"github.com/tonnahe171051/poolmate-sub002/metrics"
	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	"github.com/tonnahe171051/poolmate-sub002/storage"
)

const DefaultMatchLockTTL = 2 * time.Minute

// UpdateMatchInput is a plain score/result write. Nil fields are left unchanged.
// Status may request in_progress or completed; a winner implies completed.
type UpdateMatchInput struct {
	MatchID  int                 `json:"-"`
	Version  int64               `json:"version"`
	Score1   *int                `json:"score1,omitempty"`
	Score2   *int                `json:"score2,omitempty"`
	WinnerID *int                `json:"winner_id,omitempty"`
	TableID  *int                `json:"table_id,omitempty"`
	Status   *models.MatchStatus `json:"status,omitempty"`
	Actor    string              `json:"-"`
}

type CorrectMatchInput struct {
	MatchID  int   `json:"-"`
	Version  int64 `json:"version"`
	Score1   *int  `json:"score1,omitempty"`
	Score2   *int  `json:"score2,omitempty"`
	WinnerID *int  `json:"winner_id,omitempty"`
	// AcknowledgeDownstreamResults allows discarding results already entered on
	// matches fed by the corrected one.
	AcknowledgeDownstreamResults bool   `json:"acknowledge_downstream_results"`
	Actor                        string `json:"-"`
}

type MatchUpdateResult struct {
	Match *models.Match `json:"match"`
	// Advanced lists downstream matches filled by propagation.
	Advanced []*models.Match `json:"advanced"`
}

type CorrectionResult struct {
	Match   *models.Match           `json:"match"`
	Changed []*models.Match         `json:"changed"`
	Rewound []brackets.RewoundMatch `json:"rewound"`
	// DiscardedResults are the entered results thrown away by an acknowledged correction.
	DiscardedResults []brackets.RewoundMatch `json:"discarded_results"`
}

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error)
	UpdateMatch(ctx context.Context, input UpdateMatchInput) (*MatchUpdateResult, error)
	StartMatch(ctx context.Context, matchID int, version int64, tableID *int, actor string) (*models.Match, error)
	CorrectMatch(ctx context.Context, input CorrectMatchInput) (*CorrectionResult, error)
	// Settle converges a stage: completes ready byes and fills every slot whose
	// source already has a result. Returns the matches it wrote.
	Settle(ctx context.Context, stageID int) ([]*models.Match, error)

	AcquireLock(ctx context.Context, matchID int, holder string) (*models.MatchLock, error)
	ReleaseLock(ctx context.Context, matchID int, lockID string) error
	GetLock(ctx context.Context, matchID int) (*models.MatchLock, error)
}

type matchService struct {
	store    repositories.Store
	locks    storage.MatchLockStore
	lockTTL  time.Duration
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewMatchService(
	store repositories.Store,
	locks storage.MatchLockStore,
	lockTTL time.Duration,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) MatchService {
	if lockTTL <= 0 {
		lockTTL = DefaultMatchLockTTL
	}
	return &matchService{
		store:    store,
		locks:    locks,
		lockTTL:  lockTTL,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.store.Matches().GetByID(ctx, id)
	return m, mapRepositoryError(err)
}

func (s *matchService) ListMatches(ctx context.Context, filter repositories.MatchFilter) ([]*models.Match, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, filter.TournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.store.Matches().ListByTournament(ctx, filter)
}

// loadEditable reads the match and its stage inside tx and applies the checks
// every write shares: frozen stage, foreign lock, stale version.
func (s *matchService) loadEditable(ctx context.Context, tx repositories.Store, matchID int, version int64, actor string) (*models.Match, *models.TournamentStage, error) {
	m, err := tx.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, mapRepositoryError(err)
	}
	stage, err := tx.Stages().GetByID(ctx, m.StageID)
	if err != nil {
		return nil, nil, mapRepositoryError(err)
	}
	if stage.IsLocked() {
		return nil, nil, fmt.Errorf("%w: stage %d", ErrStageLocked, stage.ID)
	}
	if err := s.checkLock(ctx, matchID, actor); err != nil {
		return nil, nil, err
	}
	if m.Version != version {
		return nil, nil, &ConcurrencyError{MatchID: m.ID, ExpectedVersion: version, Latest: m}
	}
	return m, stage, nil
}

func (s *matchService) checkLock(ctx context.Context, matchID int, actor string) error {
	if s.locks == nil {
		return nil
	}
	lock, err := s.locks.Get(ctx, matchID)
	if err != nil {
		return fmt.Errorf("failed to read lock of match %d: %w", matchID, err)
	}
	if lock != nil && lock.Holder != actor {
		return &MatchLockedError{MatchID: matchID, LockID: lock.LockID, Holder: lock.Holder, ExpiresAt: lock.ExpiresAt}
	}
	return nil
}

func (s *matchService) UpdateMatch(ctx context.Context, input UpdateMatchInput) (*MatchUpdateResult, error) {
	if err := validateVersion(input.Version); err != nil {
		return nil, err
	}
	if input.Status != nil && *input.Status == models.MatchNotStarted {
		return nil, validationError("a match cannot be moved back to not_started")
	}

	var result MatchUpdateResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		m, _, err := s.loadEditable(ctx, tx, input.MatchID, input.Version, input.Actor)
		if err != nil {
			return err
		}
		if m.IsCompleted() {
			return validationError("match %d is completed, use a correction to change its result", m.ID)
		}
		if m.IsBye() {
			return validationError("match %d is a bye and completes automatically", m.ID)
		}
		if err := applyUpdate(ctx, tx, m, input); err != nil {
			return err
		}

		if err := tx.Matches().UpdateVersioned(ctx, m); err != nil {
			return versionedWriteError(ctx, tx, m, err)
		}
		result.Match = m

		if !m.IsCompleted() {
			return nil
		}
		stageMatches, err := tx.Matches().ListByStage(ctx, m.StageID)
		if err != nil {
			return fmt.Errorf("failed to load stage %d: %w", m.StageID, err)
		}
		arena := brackets.NewArena(stageMatches)
		if err := brackets.Advance(arena, m.ID); err != nil {
			return err
		}
		result.Advanced, err = writeChanged(ctx, tx, arena)
		return err
	})
	if err != nil {
		return nil, s.observeError(ctx, input.MatchID, err)
	}

	event := models.EventMatchUpdated
	if result.Match.IsCompleted() {
		event = models.EventMatchCompleted
		s.metrics.MatchCompleted()
		s.logger.InfoContext(ctx, "match completed",
			slog.Int("match_id", result.Match.ID),
			slog.Int("winner_id", *result.Match.WinnerID),
			slog.Int("advanced", len(result.Advanced)))
	}
	notify(ctx, s.logger, s.notifier, models.BracketEvent{
		Type:         event,
		TournamentID: result.Match.TournamentID,
		StageID:      result.Match.StageID,
		MatchIDs:     append([]int{result.Match.ID}, matchIDs(result.Advanced)...),
	})
	return &result, nil
}

// applyUpdate validates input against m and writes it into m.
func applyUpdate(ctx context.Context, tx repositories.Store, m *models.Match, input UpdateMatchInput) error {
	if err := validateDistinctPlayers(m); err != nil {
		return err
	}

	score1, score2 := m.Score1, m.Score2
	if input.Score1 != nil {
		score1 = input.Score1
	}
	if input.Score2 != nil {
		score2 = input.Score2
	}
	if err := validateScores(m, input.Score1, input.Score2); err != nil {
		return err
	}

	winner, err := resolveWinner(m, score1, score2, input.WinnerID)
	if err != nil {
		return err
	}
	wantCompleted := input.Status != nil && *input.Status == models.MatchCompleted
	if wantCompleted && winner == nil {
		return validationError("a completed match needs a winner")
	}

	if input.TableID != nil && (m.TableID == nil || *m.TableID != *input.TableID) {
		if err := checkTable(ctx, tx, m, *input.TableID); err != nil {
			return err
		}
		m.TableID = models.IntPtr(*input.TableID)
	}

	m.Score1, m.Score2 = score1, score2
	switch {
	case winner != nil:
		if err := validateCompletion(m, score1, score2, *winner); err != nil {
			return err
		}
		m.WinnerID = winner
		m.Status = models.MatchCompleted
	case input.Score1 != nil || input.Score2 != nil || (input.Status != nil && *input.Status == models.MatchInProgress):
		if !m.Slot1.Filled() || !m.Slot2.Filled() {
			return validationError("cannot start a match with an empty slot")
		}
		m.Status = models.MatchInProgress
	}
	return nil
}

func (s *matchService) StartMatch(ctx context.Context, matchID int, version int64, tableID *int, actor string) (*models.Match, error) {
	inProgress := models.MatchInProgress
	result, err := s.UpdateMatch(ctx, UpdateMatchInput{
		MatchID: matchID,
		Version: version,
		TableID: tableID,
		Status:  &inProgress,
		Actor:   actor,
	})
	if err != nil {
		return nil, err
	}
	return result.Match, nil
}

func (s *matchService) CorrectMatch(ctx context.Context, input CorrectMatchInput) (*CorrectionResult, error) {
	if err := validateVersion(input.Version); err != nil {
		return nil, err
	}

	var result CorrectionResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		m, _, err := s.loadEditable(ctx, tx, input.MatchID, input.Version, input.Actor)
		if err != nil {
			return err
		}
		if !m.IsCompleted() {
			return validationError("no recorded result to correct")
		}
		if m.IsBye() {
			return validationError("match %d is a bye, its result cannot be corrected", m.ID)
		}
		if err := validateDistinctPlayers(m); err != nil {
			return err
		}
		if err := validateScores(m, input.Score1, input.Score2); err != nil {
			return err
		}
		score1, score2 := input.Score1, input.Score2
		if score1 == nil {
			score1 = m.Score1
		}
		if score2 == nil {
			score2 = m.Score2
		}
		winner, err := resolveWinner(m, score1, score2, input.WinnerID)
		if err != nil {
			return err
		}
		if winner == nil {
			return validationError("a corrected result needs a winner")
		}
		if err := validateCompletion(m, score1, score2, *winner); err != nil {
			return err
		}

		stageMatches, err := tx.Matches().ListByStage(ctx, m.StageID)
		if err != nil {
			return fmt.Errorf("failed to load stage %d: %w", m.StageID, err)
		}
		arena := brackets.NewArena(stageMatches)
		target, err := arena.MustGet(m.ID)
		if err != nil {
			return err
		}

		if *target.WinnerID != *winner {
			result.Rewound, err = brackets.Rewind(arena, m.ID)
			if err != nil {
				return err
			}
			manual := brackets.ManualResults(result.Rewound)
			if len(manual) > 0 && !input.AcknowledgeDownstreamResults {
				return &CorrectionConflictError{MatchID: m.ID, Affected: manual}
			}
			result.DiscardedResults = manual
		}

		target.Score1 = cloneIntPtr(score1)
		target.Score2 = cloneIntPtr(score2)
		target.WinnerID = models.IntPtr(*winner)
		arena.MarkChanged(target.ID)

		if err := brackets.Advance(arena, target.ID); err != nil {
			return err
		}
		if err := arena.Validate(); err != nil {
			return err
		}
		changed, err := writeChanged(ctx, tx, arena)
		if err != nil {
			return err
		}
		for _, c := range changed {
			if c.ID == target.ID {
				result.Match = c
				continue
			}
			result.Changed = append(result.Changed, c)
		}
		return nil
	})
	if err != nil {
		return nil, s.observeError(ctx, input.MatchID, err)
	}

	s.metrics.MatchCorrected(len(result.Rewound))
	s.logger.InfoContext(ctx, "match corrected",
		slog.Int("match_id", result.Match.ID),
		slog.Int("winner_id", *result.Match.WinnerID),
		slog.Int("rewound", len(result.Rewound)),
		slog.Int("discarded_results", len(result.DiscardedResults)))
	notify(ctx, s.logger, s.notifier, models.BracketEvent{
		Type:         models.EventMatchCorrected,
		TournamentID: result.Match.TournamentID,
		StageID:      result.Match.StageID,
		MatchIDs:     append([]int{result.Match.ID}, matchIDs(result.Changed)...),
	})
	return &result, nil
}

func cloneIntPtr(v *int) *int {
	if v == nil {
		return nil
	}
	return models.IntPtr(*v)
}

func (s *matchService) Settle(ctx context.Context, stageID int) ([]*models.Match, error) {
	var changed []*models.Match
	var stage *models.TournamentStage
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		stage, err = tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if stage.IsLocked() {
			return nil
		}
		matches, err := tx.Matches().ListByStage(ctx, stageID)
		if err != nil {
			return err
		}
		arena := brackets.NewArena(matches)
		if err := brackets.Settle(arena); err != nil {
			return err
		}
		changed, err = writeChanged(ctx, tx, arena)
		return err
	})
	if err != nil {
		return nil, s.observeError(ctx, 0, err)
	}
	if len(changed) > 0 {
		s.logger.InfoContext(ctx, "stage settled", slog.Int("stage_id", stageID), slog.Int("changed", len(changed)))
		notify(ctx, s.logger, s.notifier, models.BracketEvent{
			Type:         models.EventMatchUpdated,
			TournamentID: stage.TournamentID,
			StageID:      stageID,
			MatchIDs:     matchIDs(changed),
		})
	}
	return changed, nil
}

// observeError records conflicts and logs invariant violations loudly.
func (s *matchService) observeError(ctx context.Context, matchID int, err error) error {
	switch {
	case errors.Is(err, ErrConcurrencyConflict):
		s.metrics.VersionConflict()
	case errors.Is(err, ErrMatchLocked):
		s.metrics.LockConflict()
	case errors.Is(err, ErrInvariantViolation):
		s.logger.ErrorContext(ctx, "bracket invariant violated", slog.Int("match_id", matchID), slog.Any("error", err))
	}
	return err
}

func (s *matchService) AcquireLock(ctx context.Context, matchID int, holder string) (*models.MatchLock, error) {
	if s.locks == nil {
		return nil, fmt.Errorf("%w: match locking is not configured", ErrInvalidConfiguration)
	}
	if holder == "" {
		return nil, validationError("lock holder is required")
	}
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	stage, err := s.store.Stages().GetByID(ctx, m.StageID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if stage.IsLocked() {
		return nil, fmt.Errorf("%w: stage %d", ErrStageLocked, stage.ID)
	}

	lock, err := s.locks.Acquire(ctx, matchID, holder, s.lockTTL)
	if err != nil {
		var held *storage.LockHeldError
		if errors.As(err, &held) {
			return nil, s.observeError(ctx, matchID, &MatchLockedError{
				MatchID:   matchID,
				LockID:    held.Lock.LockID,
				Holder:    held.Lock.Holder,
				ExpiresAt: held.Lock.ExpiresAt,
			})
		}
		return nil, err
	}
	return lock, nil
}

func (s *matchService) ReleaseLock(ctx context.Context, matchID int, lockID string) error {
	if s.locks == nil {
		return nil
	}
	if lockID == "" {
		return validationError("lock id is required")
	}
	err := s.locks.Release(ctx, matchID, lockID)
	if errors.Is(err, storage.ErrLockNotHeld) {
		current, getErr := s.locks.Get(ctx, matchID)
		if getErr == nil && current != nil {
			return &MatchLockedError{MatchID: matchID, LockID: current.LockID, Holder: current.Holder, ExpiresAt: current.ExpiresAt}
		}
		return nil
	}
	return err
}

func (s *matchService) GetLock(ctx context.Context, matchID int) (*models.MatchLock, error) {
	if s.locks == nil {
		return nil, nil
	}
	return s.locks.Get(ctx, matchID)
}
