package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tonnahe171051/poolmate-sub002/brackets"
	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
)

type StageService interface {
	ListStages(ctx context.Context, tournamentID int) ([]*models.TournamentStage, error)
	// CompleteStage freezes a stage whose matches are all completed. Completing
	// stage 1 of a multi-stage tournament opens stage 2.
	CompleteStage(ctx context.Context, stageID int) (*models.TournamentStage, error)
	Standings(ctx context.Context, stageID int) ([]models.Standing, error)
}

type stageService struct {
	store    repositories.Store
	notifier Notifier
	logger   *slog.Logger
}

func NewStageService(store repositories.Store, notifier Notifier, logger *slog.Logger) StageService {
	return &stageService{store: store, notifier: notifier, logger: logger}
}

func (s *stageService) ListStages(ctx context.Context, tournamentID int) ([]*models.TournamentStage, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.store.Stages().ListByTournament(ctx, tournamentID)
}

func (s *stageService) CompleteStage(ctx context.Context, stageID int) (*models.TournamentStage, error) {
	var stage *models.TournamentStage
	var next *models.TournamentStage
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		var err error
		stage, err = tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return mapRepositoryError(err)
		}
		switch stage.Status {
		case models.StageCompleted:
			return fmt.Errorf("%w: stage %d is already completed", ErrStageLocked, stage.ID)
		case models.StageNotStarted:
			return fmt.Errorf("%w: stage %d has no bracket yet", ErrInvalidConfiguration, stage.ID)
		}

		matches, err := tx.Matches().ListByStage(ctx, stageID)
		if err != nil {
			return err
		}
		for _, m := range matches {
			if !m.IsCompleted() {
				return validationError("match %d is not completed", m.ID)
			}
		}
		standings, err := brackets.ComputeStandings(brackets.NewArena(matches), advanceCountOf(stage))
		if err != nil {
			return err
		}
		if err := tx.Standings().ReplaceForStage(ctx, stageID, standings); err != nil {
			return fmt.Errorf("failed to freeze standings of stage %d: %w", stageID, err)
		}
		if err := tx.Stages().UpdateStatus(ctx, stageID, models.StageCompleted); err != nil {
			return err
		}
		stage.Status = models.StageCompleted

		if stage.StageNumber != 1 {
			return nil
		}
		tournament, err := tx.Tournaments().GetByID(ctx, stage.TournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if !tournament.IsMultiStage {
			return nil
		}
		// Stage 2 plays the advancers off in a single knockout.
		next = &models.TournamentStage{
			TournamentID: tournament.ID,
			StageNumber:  2,
			BracketType:  models.BracketSingleElimination,
			Ordering:     tournament.Stage2Ordering,
			Status:       models.StageNotStarted,
		}
		if err := tx.Stages().Create(ctx, next); err != nil && !errors.Is(err, repositories.ErrStageNumberConflict) {
			return fmt.Errorf("failed to open stage 2: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stage completed", slog.Int("stage_id", stage.ID), slog.Int("tournament_id", stage.TournamentID), slog.Bool("opened_next_stage", next != nil))
	notify(ctx, s.logger, s.notifier, models.BracketEvent{
		Type:         models.EventStageCompleted,
		TournamentID: stage.TournamentID,
		StageID:      stage.ID,
	})
	return stage, nil
}

func (s *stageService) Standings(ctx context.Context, stageID int) ([]models.Standing, error) {
	stage, err := s.store.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	var standings []models.Standing
	if stage.IsLocked() {
		// completed stages serve the placements frozen at completion
		if standings, err = s.store.Standings().ListByStage(ctx, stageID); err != nil {
			return nil, err
		}
	}
	if len(standings) == 0 {
		matches, err := s.store.Matches().ListByStage(ctx, stageID)
		if err != nil {
			return nil, err
		}
		standings, err = brackets.ComputeStandings(brackets.NewArena(matches), advanceCountOf(stage))
		if err != nil {
			if errors.Is(err, brackets.ErrStageRunning) {
				return nil, validationError("standings are available once the final is played: %v", err)
			}
			return nil, err
		}
	}

	players, err := s.store.Players().ListByTournament(ctx, stage.TournamentID, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*models.TournamentPlayer, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	for i := range standings {
		standings[i].Player = byID[standings[i].PlayerID]
	}
	return standings, nil
}

func advanceCountOf(stage *models.TournamentStage) int {
	if stage.AdvanceCount == nil {
		return 0
	}
	return *stage.AdvanceCount
}
