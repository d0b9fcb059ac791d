package brackets

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

// RosterOptions tune ResolveRoster. Rand is used by random ordering; when nil a
// time-seeded source is used. SlotAssignments (round-1 slot index -> player ID) is
// required for set_order.
type RosterOptions struct {
	Rand            *rand.Rand
	SlotAssignments map[int]int
}

// ResolveRoster orders confirmed players into round-1 slots. The returned slice has
// NextPowerOfTwo(len(players)) entries; nil entries are empty slots.
func ResolveRoster(players []*models.TournamentPlayer, mode models.OrderingMode, opts RosterOptions) ([]*int, error) {
	if len(players) < 2 {
		return nil, fmt.Errorf("%w: at least two players are required, got %d", ErrNotEnoughPlayers, len(players))
	}
	slotCount := NextPowerOfTwo(len(players))

	switch mode {
	case models.OrderingSeeded:
		return seededSlots(players, slotCount), nil
	case models.OrderingRandom:
		return randomSlots(players, slotCount, opts.Rand), nil
	case models.OrderingSetOrder:
		return setOrderSlots(players, slotCount, opts.SlotAssignments)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrdering, mode)
	}
}

// SortBySeed orders players by seed ascending; unseeded players follow, in
// registration order.
func SortBySeed(players []*models.TournamentPlayer) []*models.TournamentPlayer {
	sorted := make([]*models.TournamentPlayer, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.Seed != nil && b.Seed != nil:
			if *a.Seed != *b.Seed {
				return *a.Seed < *b.Seed
			}
		case a.Seed != nil:
			return true
		case b.Seed != nil:
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted
}

// SeedPositions returns, for each round-1 slot, the seed (1-based) placed there
// following the standard pattern 1 v N, N/2 v N/2+1, ...
func SeedPositions(slotCount int) []int {
	order := []int{1}
	for len(order) < slotCount {
		size := len(order) * 2
		next := make([]int, 0, size)
		for _, s := range order {
			next = append(next, s, size+1-s)
		}
		order = next
	}
	return order
}

func seededSlots(players []*models.TournamentPlayer, slotCount int) []*int {
	sorted := SortBySeed(players)
	slots := make([]*int, slotCount)
	for i, seed := range SeedPositions(slotCount) {
		if seed <= len(sorted) {
			id := sorted[seed-1].ID
			slots[i] = &id
		}
	}
	return slots
}

func randomSlots(players []*models.TournamentPlayer, slotCount int, rng *rand.Rand) []*int {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	shuffled := SortBySeed(players)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return sequentialSlots(shuffled, slotCount)
}

// sequentialSlots fills slots 0..n-1 in order and leaves the tail empty.
func sequentialSlots(players []*models.TournamentPlayer, slotCount int) []*int {
	slots := make([]*int, slotCount)
	for i, p := range players {
		id := p.ID
		slots[i] = &id
	}
	return slots
}

func setOrderSlots(players []*models.TournamentPlayer, slotCount int, assignments map[int]int) ([]*int, error) {
	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: set order requires a slot assignment for every player", ErrInvalidSlotPlacement)
	}
	known := make(map[int]bool, len(players))
	for _, p := range players {
		known[p.ID] = true
	}

	slots := make([]*int, slotCount)
	used := make(map[int]int, len(assignments))
	for slot, playerID := range assignments {
		if slot < 0 || slot >= slotCount {
			return nil, fmt.Errorf("%w: slot %d is outside the bracket (0..%d)", ErrInvalidSlotPlacement, slot, slotCount-1)
		}
		if !known[playerID] {
			return nil, fmt.Errorf("%w: player %d is not a confirmed player of this tournament", ErrInvalidSlotPlacement, playerID)
		}
		if other, dup := used[playerID]; dup {
			return nil, fmt.Errorf("%w: player %d assigned to slots %d and %d", ErrInvalidSlotPlacement, playerID, min(other, slot), max(other, slot))
		}
		used[playerID] = slot
		id := playerID
		slots[slot] = &id
	}
	for _, p := range players {
		if _, ok := used[p.ID]; !ok {
			return nil, fmt.Errorf("%w: player %d has no slot", ErrInvalidSlotPlacement, p.ID)
		}
	}
	return slots, nil
}

// ValidateAdvanceCount checks that a stage-1 roster can produce advanceCount advancers:
// at least one player must be eliminated, so advanceCount+1 players are required.
func ValidateAdvanceCount(playerCount, advanceCount int) error {
	if advanceCount < 1 {
		return fmt.Errorf("%w: advance count must be at least 1, got %d", ErrNotEnoughPlayers, advanceCount)
	}
	if playerCount < advanceCount+1 {
		return fmt.Errorf("%w: requires at least %d players for advance count %d, got %d",
			ErrNotEnoughPlayers, advanceCount+1, advanceCount, playerCount)
	}
	return nil
}
