package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
	"github.com/tonnahe171051/poolmate-sub002/storage"
)

// Notifier is told about every committed bracket change. Delivery is best effort:
// a failing notifier never undoes the change.
type Notifier interface {
	MatchesChanged(ctx context.Context, event models.BracketEvent) error
}

type NopNotifier struct{}

func (NopNotifier) MatchesChanged(context.Context, models.BracketEvent) error { return nil }

// MultiNotifier fans an event out to every notifier and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) MatchesChanged(ctx context.Context, event models.BracketEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.MatchesChanged(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notify(ctx context.Context, logger *slog.Logger, n Notifier, event models.BracketEvent) {
	if n == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := n.MatchesChanged(ctx, event); err != nil {
		logger.WarnContext(ctx, "bracket notification failed",
			slog.String("event", string(event.Type)),
			slog.Int("tournament_id", event.TournamentID),
			slog.Int("stage_id", event.StageID),
			slog.Any("error", err))
	}
}

func matchIDs(matches []*models.Match) []int {
	ids := make([]int, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	return ids
}

// BracketSnapshot is the document archived after each bracket change.
type BracketSnapshot struct {
	Event   models.BracketEvent `json:"event"`
	Matches []*models.Match     `json:"matches"`
}

// ArchiveNotifier writes a JSON snapshot of the stage to object storage: one
// immutable object per event plus a "latest" object that is overwritten.
type ArchiveNotifier struct {
	store   repositories.Store
	objects storage.ObjectStore
	prefix  string
}

func NewArchiveNotifier(store repositories.Store, objects storage.ObjectStore, prefix string) *ArchiveNotifier {
	if prefix == "" {
		prefix = "brackets"
	}
	return &ArchiveNotifier{store: store, objects: objects, prefix: prefix}
}

func (a *ArchiveNotifier) MatchesChanged(ctx context.Context, event models.BracketEvent) error {
	matches, err := a.store.Matches().ListByStage(ctx, event.StageID)
	if err != nil {
		return fmt.Errorf("failed to load stage %d for archiving: %w", event.StageID, err)
	}
	body, err := json.Marshal(BracketSnapshot{Event: event, Matches: matches})
	if err != nil {
		return fmt.Errorf("failed to encode bracket snapshot: %w", err)
	}

	base := fmt.Sprintf("%s/tournament_%d/stage_%d", a.prefix, event.TournamentID, event.StageID)
	keys := []string{
		fmt.Sprintf("%s/%s_%s.json", base, event.OccurredAt.UTC().Format("20060102T150405.000000000Z"), event.Type),
		base + "/latest.json",
	}
	for _, key := range keys {
		if _, err := a.objects.Put(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
			return err
		}
	}
	return nil
}
