package brackets

import (
	"fmt"
	"sort"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

// Arena is an id-keyed working copy of a stage's matches. Progression and rewind
// mutate the arena only; callers persist Changed() afterwards.
type Arena struct {
	matches map[int]*models.Match
	changed map[int]struct{}
}

// NewArena copies the given matches into a new arena.
func NewArena(matches []*models.Match) *Arena {
	a := &Arena{
		matches: make(map[int]*models.Match, len(matches)),
		changed: make(map[int]struct{}),
	}
	for _, m := range matches {
		a.matches[m.ID] = m.Clone()
	}
	return a
}

func (a *Arena) Get(id int) (*models.Match, bool) {
	m, ok := a.matches[id]
	return m, ok
}

// MustGet returns the match or an invariant violation.
func (a *Arena) MustGet(id int) (*models.Match, error) {
	m, ok := a.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: match %d is referenced but not part of the bracket", ErrInvariantViolation, id)
	}
	return m, nil
}

func (a *Arena) MarkChanged(id int) {
	a.changed[id] = struct{}{}
}

// Matches returns every match ordered by ID.
func (a *Arena) Matches() []*models.Match {
	return a.sorted(func(int) bool { return true })
}

// Changed returns the matches modified since the arena was built, ordered by ID.
func (a *Arena) Changed() []*models.Match {
	return a.sorted(func(id int) bool {
		_, ok := a.changed[id]
		return ok
	})
}

func (a *Arena) sorted(keep func(int) bool) []*models.Match {
	ids := make([]int, 0, len(a.matches))
	for id := range a.matches {
		if keep(id) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]*models.Match, 0, len(ids))
	for _, id := range ids {
		out = append(out, a.matches[id])
	}
	return out
}

// Validate checks the structural invariants the engine relies on.
func (a *Arena) Validate() error {
	for _, m := range a.Matches() {
		for n := 1; n <= 2; n++ {
			s := m.Slot(n)
			if s.SourceType != models.SourceWinnerOf && s.SourceType != models.SourceLoserOf {
				continue
			}
			if s.SourceMatchID == nil {
				return fmt.Errorf("%w: match %d slot %d is %s without a source match", ErrInvariantViolation, m.ID, n, s.SourceType)
			}
			src, err := a.MustGet(*s.SourceMatchID)
			if err != nil {
				return err
			}
			if s.Filled() && !src.IsCompleted() {
				return fmt.Errorf("%w: match %d slot %d filled before source match %d completed", ErrInvariantViolation, m.ID, n, src.ID)
			}
		}
		if m.IsCompleted() && m.WinnerID == nil {
			return fmt.Errorf("%w: match %d is completed without a winner", ErrInvariantViolation, m.ID)
		}
	}
	return nil
}

// Settle converges the bracket: ready byes are completed and every completed match's
// winner and loser are pushed into the slots sourced from it, cascading through bye
// chains. Running Settle again without new results changes nothing.
func Settle(a *Arena) error {
	if err := a.Validate(); err != nil {
		return err
	}
	var queue []int
	for _, m := range a.Matches() {
		if completeReadyBye(a, m) {
			queue = append(queue, m.ID)
			continue
		}
		if m.IsCompleted() {
			queue = append(queue, m.ID)
		}
	}
	return drain(a, queue)
}

// Advance propagates the result of one completed match (and any bye it unlocks).
func Advance(a *Arena, matchID int) error {
	m, err := a.MustGet(matchID)
	if err != nil {
		return err
	}
	if !m.IsCompleted() {
		return fmt.Errorf("%w: match %d", ErrNoResult, matchID)
	}
	return drain(a, []int{matchID})
}

func drain(a *Arena, queue []int) error {
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		m, err := a.MustGet(id)
		if err != nil {
			return err
		}
		if !m.IsCompleted() {
			continue
		}

		if m.NextWinnerMatchID != nil {
			next, err := fill(a, m, *m.NextWinnerMatchID, models.SourceWinnerOf, *m.WinnerID)
			if err != nil {
				return err
			}
			if next != nil {
				queue = append(queue, next.ID)
			}
		}

		if m.NextLoserMatchID != nil {
			loser := m.LoserID()
			if loser == nil {
				return fmt.Errorf("%w: match %d routes a loser but has none", ErrInvariantViolation, m.ID)
			}
			next, err := fill(a, m, *m.NextLoserMatchID, models.SourceLoserOf, *loser)
			if err != nil {
				return err
			}
			if next != nil {
				queue = append(queue, next.ID)
			}
		}
	}
	return nil
}

// fill places playerID into the slot of targetID sourced from src. It returns the
// target when that target became a completed bye and must be propagated in turn.
func fill(a *Arena, src *models.Match, targetID int, sourceType models.SlotSourceType, playerID int) (*models.Match, error) {
	target, err := a.MustGet(targetID)
	if err != nil {
		return nil, err
	}
	n := target.SlotSourcedFrom(sourceType, src.ID)
	if n == 0 {
		return nil, fmt.Errorf("%w: match %d has no %s slot for match %d", ErrInvariantViolation, target.ID, sourceType, src.ID)
	}
	slot := target.Slot(n)
	switch {
	case slot.PlayerID == nil:
		slot.PlayerID = models.IntPtr(playerID)
		a.MarkChanged(target.ID)
	case *slot.PlayerID == playerID:
		// already propagated
	default:
		return nil, fmt.Errorf("%w: match %d slot %d holds player %d, propagation from match %d brings player %d",
			ErrSlotConflict, target.ID, n, *slot.PlayerID, src.ID, playerID)
	}

	if completeReadyBye(a, target) {
		return target, nil
	}
	return nil, nil
}

// completeReadyBye completes a bye whose lone slot is filled.
func completeReadyBye(a *Arena, m *models.Match) bool {
	if !m.IsBye() || m.IsCompleted() {
		return false
	}
	lone := m.ByeSlot()
	if !lone.Filled() {
		return false
	}
	m.Status = models.MatchCompleted
	m.WinnerID = models.IntPtr(*lone.PlayerID)
	a.MarkChanged(m.ID)
	return true
}
