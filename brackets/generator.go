package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

// GenerateBracketParams carries the resolved roster: Slots[i] is the player placed
// into round-1 slot i, nil for an empty slot. len(Slots) must be a power of two.
type GenerateBracketParams struct {
	Slots []*int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// SlotSpec describes where one slot of a generated match gets its player from.
// SourceUID refers to another BracketMatch for winner_of / loser_of slots.
type SlotSpec struct {
	PlayerID   *int
	SourceType models.SlotSourceType
	SourceUID  string
}

// BracketMatch is a node of the generated (not yet persisted) match graph.
type BracketMatch struct {
	UID      string
	Side     models.BracketSide
	Round    int
	Position int

	Slot1 SlotSpec
	Slot2 SlotSpec

	NextWinnerUID string
	NextLoserUID  string
}

func (bm *BracketMatch) Slot(n int) *SlotSpec {
	if n == 1 {
		return &bm.Slot1
	}
	return &bm.Slot2
}

func (bm *BracketMatch) IsBye() bool {
	return (bm.Slot1.SourceType == models.SourceNone) != (bm.Slot2.SourceType == models.SourceNone)
}

// NewGenerator returns the generator for a bracket type.
func NewGenerator(bracketType models.BracketType) (BracketGenerator, error) {
	switch bracketType {
	case models.BracketSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.BracketDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported bracket type '%s'", bracketType)
	}
}

// NextPowerOfTwo returns the bracket size needed for n players.
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// RoundCount returns log2(slotCount).
func RoundCount(slotCount int) int {
	rounds := 0
	for s := slotCount; s > 1; s >>= 1 {
		rounds++
	}
	return rounds
}

func validateSlotCount(slotCount int) error {
	if slotCount < 2 {
		return fmt.Errorf("%w: bracket needs at least 2 slots, got %d", ErrInvalidBracketSize, slotCount)
	}
	if slotCount&(slotCount-1) != 0 {
		return fmt.Errorf("%w: slot count %d is not a power of two", ErrInvalidBracketSize, slotCount)
	}
	return nil
}

var sideOrder = map[models.BracketSide]int{
	models.SideKnockout: 0,
	models.SideWinners:  0,
	models.SideLosers:   1,
	models.SideFinals:   2,
}

func sortBracketMatches(matches []*BracketMatch) {
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if sideOrder[a.Side] != sideOrder[b.Side] {
			return sideOrder[a.Side] < sideOrder[b.Side]
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.Position < b.Position
	})
}
