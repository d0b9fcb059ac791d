package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	"golang.org/x/sync/errgroup"
)

type CreateTournamentInput struct {
	Name           string              `json:"name"`
	BracketType    models.BracketType  `json:"bracket_type"`
	IsMultiStage   bool                `json:"is_multi_stage"`
	AdvanceCount   *int                `json:"advance_count,omitempty"`
	Stage1Ordering models.OrderingMode `json:"stage1_ordering"`
	Stage2Ordering models.OrderingMode `json:"stage2_ordering"`
	WinnersRaceTo  int                 `json:"winners_race_to"`
	LosersRaceTo   int                 `json:"losers_race_to"`
	FinalsRaceTo   int                 `json:"finals_race_to"`
}

type RegisterPlayerInput struct {
	Name   string              `json:"name"`
	Seed   *int                `json:"seed,omitempty"`
	Status models.PlayerStatus `json:"status"`
}

// TournamentService manages the tournament records the bracket engine reads.
type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	RegisterPlayer(ctx context.Context, tournamentID int, input RegisterPlayerInput) (*models.TournamentPlayer, error)
	ListPlayers(ctx context.Context, tournamentID int) ([]*models.TournamentPlayer, error)
}

type tournamentService struct {
	store  repositories.Store
	logger *slog.Logger
}

func NewTournamentService(store repositories.Store, logger *slog.Logger) TournamentService {
	return &tournamentService{store: store, logger: logger}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	t := &models.Tournament{
		Name:           strings.TrimSpace(input.Name),
		BracketType:    input.BracketType,
		IsMultiStage:   input.IsMultiStage,
		AdvanceCount:   input.AdvanceCount,
		Stage1Ordering: input.Stage1Ordering,
		Stage2Ordering: input.Stage2Ordering,
		WinnersRaceTo:  input.WinnersRaceTo,
		LosersRaceTo:   input.LosersRaceTo,
		FinalsRaceTo:   input.FinalsRaceTo,
	}
	if t.Stage1Ordering == "" {
		t.Stage1Ordering = models.OrderingSeeded
	}
	if t.Stage2Ordering == "" {
		t.Stage2Ordering = models.OrderingSeeded
	}
	if err := validateTournament(t); err != nil {
		return nil, err
	}

	if err := s.store.Tournaments().Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, validationError("tournament name %q is already taken", t.Name)
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	s.logger.InfoContext(ctx, "tournament created", slog.Int("tournament_id", t.ID), slog.String("bracket_type", string(t.BracketType)))
	return t, nil
}

func validateTournament(t *models.Tournament) error {
	if t.Name == "" {
		return validationError("tournament name is required")
	}
	if !t.BracketType.Valid() {
		return fmt.Errorf("%w: unsupported bracket type %q", ErrInvalidConfiguration, t.BracketType)
	}
	if !t.Stage1Ordering.Valid() || !t.Stage2Ordering.Valid() {
		return fmt.Errorf("%w: ordering must be one of seeded, random, set_order", ErrInvalidConfiguration)
	}
	if t.IsMultiStage {
		if t.BracketType == models.BracketSingleElimination {
			return fmt.Errorf("%w: multi-stage tournaments cannot use single elimination for stage 1", ErrInvalidConfiguration)
		}
		if t.AdvanceCount == nil || *t.AdvanceCount < 1 {
			return fmt.Errorf("%w: multi-stage tournaments need an advance count of at least 1", ErrInvalidConfiguration)
		}
	} else if t.AdvanceCount != nil {
		return fmt.Errorf("%w: advance count is only used by multi-stage tournaments", ErrInvalidConfiguration)
	}
	if t.WinnersRaceTo < 1 {
		return validationError("winners race-to must be at least 1")
	}
	if t.LosersRaceTo < 0 || t.FinalsRaceTo < 0 {
		return validationError("race-to cannot be negative")
	}
	return nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	var (
		stages  []*models.TournamentStage
		players []*models.TournamentPlayer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stages, err = s.store.Stages().ListByTournament(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.store.Players().ListByTournament(gctx, id, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament %d details: %w", id, err)
	}

	t.Stages = make([]models.TournamentStage, 0, len(stages))
	for _, st := range stages {
		t.Stages = append(t.Stages, *st)
	}
	t.Players = make([]models.TournamentPlayer, 0, len(players))
	for _, p := range players {
		t.Players = append(t.Players, *p)
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	return s.store.Tournaments().List(ctx, limit, offset)
}

func (s *tournamentService) RegisterPlayer(ctx context.Context, tournamentID int, input RegisterPlayerInput) (*models.TournamentPlayer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("player name is required")
	}
	if input.Seed != nil && *input.Seed < 1 {
		return nil, validationError("seed must be at least 1")
	}
	status := input.Status
	if status == "" {
		status = models.PlayerConfirmed
	}
	switch status {
	case models.PlayerPending, models.PlayerConfirmed, models.PlayerWithdrawn:
	default:
		return nil, validationError("unknown player status %q", status)
	}

	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}

	p := &models.TournamentPlayer{TournamentID: tournamentID, Name: name, Seed: input.Seed, Status: status}
	if err := s.store.Players().Create(ctx, p); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerSeedConflict):
			return nil, validationError("seed %d is already taken", *input.Seed)
		case errors.Is(err, repositories.ErrPlayerNameConflict):
			return nil, validationError("player %q is already registered", name)
		case errors.Is(err, repositories.ErrPlayerTournamentInvalid):
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to register player: %w", err)
	}
	return p, nil
}

func (s *tournamentService) ListPlayers(ctx context.Context, tournamentID int) ([]*models.TournamentPlayer, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}
	return s.store.Players().ListByTournament(ctx, tournamentID, nil)
}
