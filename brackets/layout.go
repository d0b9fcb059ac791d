package brackets

import (
	"fmt"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

// source is one input of a canonical bracket node.
type source struct {
	kind      models.SlotSourceType
	slotIndex int    // round-1 slot for seed sources
	matchUID  string // upstream node for winner_of / loser_of sources
}

// node is a match of the full canonical bracket, before empty slots are pruned.
type node struct {
	uid      string
	side     models.BracketSide
	round    int
	position int
	sources  [2]source
}

func seedSource(slotIndex int) source {
	return source{kind: models.SourceSeed, slotIndex: slotIndex}
}

func winnerOf(uid string) source {
	return source{kind: models.SourceWinnerOf, matchUID: uid}
}

func loserOf(uid string) source {
	return source{kind: models.SourceLoserOf, matchUID: uid}
}

// layout turns the canonical node list into the concrete bracket for the given slots.
//
// A source is live when it is an occupied seed slot, the winner of a present match, or
// the loser of a present non-bye match. Nodes with no live source are dropped; nodes
// with one live source become byes. nodes must be ordered so that every source node
// precedes the nodes it feeds.
func layout(nodes []*node, slots []*int) ([]*BracketMatch, error) {
	present := make(map[string]bool, len(nodes))
	bye := make(map[string]bool, len(nodes))
	byUID := make(map[string]*BracketMatch, len(nodes))
	result := make([]*BracketMatch, 0, len(nodes))

	live := func(s source) (bool, error) {
		switch s.kind {
		case models.SourceSeed:
			if s.slotIndex < 0 || s.slotIndex >= len(slots) {
				return false, fmt.Errorf("%w: seed slot %d outside bracket of %d", ErrInvalidSlotPlacement, s.slotIndex, len(slots))
			}
			return slots[s.slotIndex] != nil, nil
		case models.SourceWinnerOf:
			return present[s.matchUID], nil
		case models.SourceLoserOf:
			return present[s.matchUID] && !bye[s.matchUID], nil
		}
		return false, fmt.Errorf("%w: unexpected source kind %q", ErrInvariantViolation, s.kind)
	}

	for _, n := range nodes {
		var liveness [2]bool
		for i, s := range n.sources {
			ok, err := live(s)
			if err != nil {
				return nil, err
			}
			liveness[i] = ok
		}
		if !liveness[0] && !liveness[1] {
			continue
		}
		present[n.uid] = true
		bye[n.uid] = liveness[0] != liveness[1]

		bm := &BracketMatch{
			UID:      n.uid,
			Side:     n.side,
			Round:    n.round,
			Position: n.position,
		}
		for i, s := range n.sources {
			slot := bm.Slot(i + 1)
			if !liveness[i] {
				slot.SourceType = models.SourceNone
				continue
			}
			slot.SourceType = s.kind
			if s.kind == models.SourceSeed {
				pid := *slots[s.slotIndex]
				slot.PlayerID = &pid
				continue
			}
			slot.SourceUID = s.matchUID
			upstream, ok := byUID[s.matchUID]
			if !ok {
				return nil, fmt.Errorf("%w: node %s references unknown node %s", ErrInvariantViolation, n.uid, s.matchUID)
			}
			if s.kind == models.SourceWinnerOf {
				if upstream.NextWinnerUID != "" {
					return nil, fmt.Errorf("%w: winner of %s routed twice", ErrInvariantViolation, upstream.UID)
				}
				upstream.NextWinnerUID = n.uid
			} else {
				if upstream.NextLoserUID != "" {
					return nil, fmt.Errorf("%w: loser of %s routed twice", ErrInvariantViolation, upstream.UID)
				}
				upstream.NextLoserUID = n.uid
			}
		}
		byUID[n.uid] = bm
		result = append(result, bm)
	}

	sortBracketMatches(result)
	return result, nil
}

// winnersNodes builds a full knockout tree of slotCount slots. Round r position p
// feeds round r+1 position (p+1)/2.
func winnersNodes(slotCount int, side models.BracketSide, prefix string) []*node {
	rounds := RoundCount(slotCount)
	nodes := make([]*node, 0, slotCount-1)
	for r := 1; r <= rounds; r++ {
		count := slotCount >> uint(r)
		for p := 1; p <= count; p++ {
			n := &node{uid: matchUID(prefix, r, p), side: side, round: r, position: p}
			if r == 1 {
				n.sources = [2]source{seedSource(2 * (p - 1)), seedSource(2*(p-1) + 1)}
			} else {
				n.sources = [2]source{
					winnerOf(matchUID(prefix, r-1, 2*p-1)),
					winnerOf(matchUID(prefix, r-1, 2*p)),
				}
			}
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func matchUID(prefix string, round, position int) string {
	return fmt.Sprintf("%sR%dM%d", prefix, round, position)
}
