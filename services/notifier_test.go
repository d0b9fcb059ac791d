package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/storage"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	keys    []string
	err     error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(_ context.Context, key string, contentType string, body io.Reader) (*storage.PutResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.keys = append(s.keys, key)
	return &storage.PutResult{Key: key, Location: s.PublicURL(key)}, nil
}

func (s *fakeObjectStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) PublicURL(key string) string {
	return "https://archive.test/" + key
}

func TestMultiNotifier(t *testing.T) {
	first := &recordingNotifier{}
	failing := &recordingNotifier{err: errNotifierDown}
	event := models.BracketEvent{Type: models.EventMatchUpdated, TournamentID: 1, StageID: 2}

	err := MultiNotifier{first, nil, failing}.MatchesChanged(context.Background(), event)
	assert.ErrorIs(t, err, errNotifierDown)
	assert.Len(t, first.Events(), 1)
	assert.Len(t, failing.Events(), 1)

	assert.NoError(t, MultiNotifier{}.MatchesChanged(context.Background(), event))
	assert.NoError(t, NopNotifier{}.MatchesChanged(context.Background(), event))
}

func TestNotifierFailureDoesNotUndoChange(t *testing.T) {
	f := newFixture(t)
	tour, _ := f.tournament(t, singleElimination("Offline"), 4)
	view := f.build(t, tour.ID)
	f.notifier.err = errNotifierDown

	res := f.play(t, view.Stage.ID, "KR1M1", 1)
	assert.True(t, res.Match.IsCompleted())
	assert.True(t, f.match(t, view.Stage.ID, "KR1M1").IsCompleted())
	assert.False(t, f.notifier.Last(t).OccurredAt.IsZero())
}

func TestArchiveNotifier(t *testing.T) {
	f := newFixture(t)
	tour, _ := f.tournament(t, singleElimination("Archived"), 4)
	view := f.build(t, tour.ID)

	objects := newFakeObjectStore()
	archive := NewArchiveNotifier(f.store, objects, "")
	event := models.BracketEvent{
		Type:         models.EventMatchCompleted,
		TournamentID: tour.ID,
		StageID:      view.Stage.ID,
		MatchIDs:     []int{1},
		OccurredAt:   time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC),
	}
	require.NoError(t, archive.MatchesChanged(context.Background(), event))

	base := fmt.Sprintf("brackets/tournament_%d/stage_%d", tour.ID, view.Stage.ID)
	require.Len(t, objects.keys, 2)
	assert.Equal(t, base+"/20260314T183000.000000000Z_MATCH_COMPLETED.json", objects.keys[0])
	assert.Equal(t, base+"/latest.json", objects.keys[1])

	var snapshot BracketSnapshot
	require.NoError(t, json.Unmarshal(objects.objects[base+"/latest.json"], &snapshot))
	assert.Equal(t, models.EventMatchCompleted, snapshot.Event.Type)
	assert.Len(t, snapshot.Matches, 3)

	objects.err = errors.New("bucket unavailable")
	err := archive.MatchesChanged(context.Background(), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")
}
