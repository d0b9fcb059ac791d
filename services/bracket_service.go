package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/tonnahe171051/poolmate-sub002/brackets"
	"github.com/tonnahe171051/poolmate-sub002/metrics"
	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateBracketInput struct {
	TournamentID int `json:"-"`
	// StageNumber defaults to 1.
	StageNumber int `json:"stage_number"`
	// SlotAssignments maps round-1 slot index to player id; used by set_order.
	SlotAssignments map[int]int `json:"slot_assignments,omitempty"`
}

// BracketView is a stage's bracket grouped for display.
type BracketView struct {
	Tournament *models.Tournament         `json:"tournament"`
	Stage      *models.TournamentStage    `json:"stage"`
	Players    []*models.TournamentPlayer `json:"players"`
	Sides      []SideView                 `json:"sides"`
}

type BracketService interface {
	CreateBracket(ctx context.Context, input CreateBracketInput) (*BracketView, error)
	GetBracket(ctx context.Context, tournamentID, stageNumber int) (*BracketView, error)
}

type bracketService struct {
	store    repositories.Store
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

type BracketServiceOption func(*bracketService)

// WithRandSource makes random ordering reproducible.
func WithRandSource(src rand.Source) BracketServiceOption {
	return func(s *bracketService) {
		s.rand = rand.New(src)
	}
}

func NewBracketService(
	store repositories.Store,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...BracketServiceOption,
) BracketService {
	s := &bracketService{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *bracketService) CreateBracket(ctx context.Context, input CreateBracketInput) (*BracketView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.StageNumber == 0 {
		input.StageNumber = 1
	}

	tournament, err := s.store.Tournaments().GetByID(ctx, input.TournamentID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	stage, err := s.findStage(ctx, s.store, tournament.ID, input.StageNumber)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNotBuilt(ctx, s.store, stage); err != nil {
		return nil, err
	}
	if input.StageNumber != 1 {
		if !tournament.IsMultiStage {
			return nil, fmt.Errorf("%w: tournament %d has a single stage", ErrInvalidConfiguration, tournament.ID)
		}
		return nil, fmt.Errorf("%w: stage %d brackets are not built by this service", ErrInvalidConfiguration, input.StageNumber)
	}

	confirmed := models.PlayerConfirmed
	players, err := s.store.Players().ListByTournament(ctx, tournament.ID, &confirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmed players for tournament %d: %w", tournament.ID, err)
	}
	if len(players) < 2 {
		return nil, validationError("at least two players are required, tournament %d has %d confirmed", tournament.ID, len(players))
	}

	if !tournament.BracketType.Valid() {
		return nil, fmt.Errorf("%w: unsupported bracket type %q", ErrInvalidConfiguration, tournament.BracketType)
	}
	if tournament.IsMultiStage && tournament.BracketType == models.BracketSingleElimination {
		return nil, fmt.Errorf("%w: multi-stage tournaments cannot use single elimination for stage 1", ErrInvalidConfiguration)
	}
	if tournament.IsMultiStage {
		if tournament.AdvanceCount == nil {
			return nil, fmt.Errorf("%w: multi-stage tournament %d has no advance count", ErrInvalidConfiguration, tournament.ID)
		}
		if err := brackets.ValidateAdvanceCount(len(players), *tournament.AdvanceCount); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
	}

	slots, err := s.resolveRoster(players, tournament.Stage1Ordering, input.SlotAssignments)
	if err != nil {
		return nil, err
	}
	generator, err := brackets.NewGenerator(tournament.BracketType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	generated, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Slots: slots})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s bracket for tournament %d: %w", generator.GetName(), tournament.ID, err)
	}

	s.logger.InfoContext(ctx, "building bracket",
		slog.Int("tournament_id", tournament.ID),
		slog.String("generator", generator.GetName()),
		slog.Int("players", len(players)),
		slog.Int("matches", len(generated)))

	var created []*models.Match
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		txStage, err := s.findStage(ctx, tx, tournament.ID, 1)
		if err != nil {
			return err
		}
		if txStage == nil {
			txStage = &models.TournamentStage{
				TournamentID: tournament.ID,
				StageNumber:  1,
				BracketType:  tournament.BracketType,
				Ordering:     tournament.Stage1Ordering,
				AdvanceCount: tournament.AdvanceCount,
				Status:       models.StageNotStarted,
			}
			if err := tx.Stages().Create(ctx, txStage); err != nil {
				if errors.Is(err, repositories.ErrStageNumberConflict) {
					return ErrBracketAlreadyCreated
				}
				return fmt.Errorf("failed to create stage 1: %w", err)
			}
		} else if err := s.ensureNotBuilt(ctx, tx, txStage); err != nil {
			return err
		}

		created, err = persistBracket(ctx, tx, tournament, txStage, generated)
		if err != nil {
			return err
		}

		arena := brackets.NewArena(created)
		if err := brackets.Settle(arena); err != nil {
			return fmt.Errorf("failed to settle byes: %w", err)
		}
		if _, err := writeChanged(ctx, tx, arena); err != nil {
			return err
		}
		created = arena.Matches()

		if err := tx.Stages().UpdateStatus(ctx, txStage.ID, models.StageInProgress); err != nil {
			return fmt.Errorf("failed to start stage %d: %w", txStage.ID, err)
		}
		txStage.Status = models.StageInProgress
		stage = txStage
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			s.logger.ErrorContext(ctx, "bracket construction broke an invariant", slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		}
		return nil, err
	}

	s.metrics.BracketCreated(string(tournament.BracketType))
	notify(ctx, s.logger, s.notifier, models.BracketEvent{
		Type:         models.EventBracketCreated,
		TournamentID: tournament.ID,
		StageID:      stage.ID,
		MatchIDs:     matchIDs(created),
	})

	return &BracketView{Tournament: tournament, Stage: stage, Players: players, Sides: groupMatches(created)}, nil
}

// findStage returns the stage with the given number, or nil when it does not exist yet.
func (s *bracketService) findStage(ctx context.Context, store repositories.Store, tournamentID, stageNumber int) (*models.TournamentStage, error) {
	stages, err := store.Stages().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages of tournament %d: %w", tournamentID, err)
	}
	for _, st := range stages {
		if st.StageNumber == stageNumber {
			return st, nil
		}
	}
	return nil, nil
}

func (s *bracketService) ensureNotBuilt(ctx context.Context, store repositories.Store, stage *models.TournamentStage) error {
	if stage == nil {
		return nil
	}
	count, err := store.Matches().CountByStage(ctx, stage.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: stage %d already has %d matches", ErrBracketAlreadyCreated, stage.StageNumber, count)
	}
	return nil
}

func (s *bracketService) resolveRoster(players []*models.TournamentPlayer, mode models.OrderingMode, assignments map[int]int) ([]*int, error) {
	s.randMu.Lock()
	defer s.randMu.Unlock()

	slots, err := brackets.ResolveRoster(players, mode, brackets.RosterOptions{Rand: s.rand, SlotAssignments: assignments})
	switch {
	case err == nil:
		return slots, nil
	case errors.Is(err, brackets.ErrUnknownOrdering):
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	case errors.Is(err, brackets.ErrInvalidSlotPlacement), errors.Is(err, brackets.ErrNotEnoughPlayers):
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return nil, err
}

// persistBracket writes the generated matches in two passes: rows first, then the
// id links between them.
func persistBracket(ctx context.Context, tx repositories.Store, t *models.Tournament, stage *models.TournamentStage, generated []*brackets.BracketMatch) ([]*models.Match, error) {
	rows := make([]*models.Match, 0, len(generated))
	for _, bm := range generated {
		rows = append(rows, &models.Match{
			TournamentID: t.ID,
			StageID:      stage.ID,
			BracketSide:  bm.Side,
			Round:        bm.Round,
			Position:     bm.Position,
			BracketUID:   bm.UID,
			Slot1:        models.MatchSlot{PlayerID: bm.Slot1.PlayerID, SourceType: bm.Slot1.SourceType},
			Slot2:        models.MatchSlot{PlayerID: bm.Slot2.PlayerID, SourceType: bm.Slot2.SourceType},
			RaceTo:       t.RaceToFor(bm.Side),
			Status:       models.MatchNotStarted,
		})
	}
	if err := tx.Matches().CreateBatch(ctx, rows); err != nil {
		if errors.Is(err, repositories.ErrMatchDuplicate) {
			return nil, ErrBracketAlreadyCreated
		}
		return nil, fmt.Errorf("failed to save bracket matches: %w", err)
	}

	idByUID := make(map[string]int, len(rows))
	for _, m := range rows {
		idByUID[m.BracketUID] = m.ID
	}
	lookup := func(uid string) (*int, error) {
		if uid == "" {
			return nil, nil
		}
		id, ok := idByUID[uid]
		if !ok {
			return nil, fmt.Errorf("%w: generated bracket references unknown match %s", ErrInvariantViolation, uid)
		}
		return models.IntPtr(id), nil
	}

	for i, bm := range generated {
		m := rows[i]
		var err error
		if m.NextWinnerMatchID, err = lookup(bm.NextWinnerUID); err != nil {
			return nil, err
		}
		if m.NextLoserMatchID, err = lookup(bm.NextLoserUID); err != nil {
			return nil, err
		}
		if m.Slot1.SourceMatchID, err = lookup(bm.Slot1.SourceUID); err != nil {
			return nil, err
		}
		if m.Slot2.SourceMatchID, err = lookup(bm.Slot2.SourceUID); err != nil {
			return nil, err
		}
		if m.NextWinnerMatchID == nil && m.NextLoserMatchID == nil && m.Slot1.SourceMatchID == nil && m.Slot2.SourceMatchID == nil {
			continue
		}
		if err := tx.Matches().UpdateLinks(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to link match %s: %w", m.BracketUID, err)
		}
	}
	return rows, nil
}

// writeChanged persists every match the arena touched, with the version check.
func writeChanged(ctx context.Context, tx repositories.Store, arena *brackets.Arena) ([]*models.Match, error) {
	changed := arena.Changed()
	for _, m := range changed {
		if err := tx.Matches().UpdateVersioned(ctx, m); err != nil {
			return nil, versionedWriteError(ctx, tx, m, err)
		}
	}
	return changed, nil
}

// versionedWriteError turns a repository version conflict into a ConcurrencyError
// carrying the stored match.
func versionedWriteError(ctx context.Context, store repositories.Store, m *models.Match, err error) error {
	if !errors.Is(err, repositories.ErrMatchVersionConflict) {
		return mapRepositoryError(err)
	}
	latest, getErr := store.Matches().GetByID(ctx, m.ID)
	if getErr != nil {
		latest = nil
	}
	return &ConcurrencyError{MatchID: m.ID, ExpectedVersion: m.Version, Latest: latest}
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID, stageNumber int) (*BracketView, error) {
	if stageNumber == 0 {
		stageNumber = 1
	}

	var (
		tournament *models.Tournament
		stage      *models.TournamentStage
		players    []*models.TournamentPlayer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.store.Tournaments().GetByID(gctx, tournamentID)
		return mapRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		stage, err = s.findStage(gctx, s.store, tournamentID, stageNumber)
		return err
	})
	g.Go(func() error {
		confirmed := models.PlayerConfirmed
		var err error
		players, err = s.store.Players().ListByTournament(gctx, tournamentID, &confirmed)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stage == nil {
		return nil, fmt.Errorf("%w: tournament %d has no stage %d", ErrStageNotFound, tournamentID, stageNumber)
	}

	matches, err := s.store.Matches().ListByStage(ctx, stage.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches of stage %d: %w", stage.ID, err)
	}
	return &BracketView{Tournament: tournament, Stage: stage, Players: players, Sides: groupMatches(matches)}, nil
}
