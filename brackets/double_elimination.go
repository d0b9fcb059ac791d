package brackets

import (
	"context"
	"fmt"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

const grandFinalUID = "GF"

type DoubleEliminationGenerator struct {
}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket builds winners bracket (WR*), losers bracket (LR*) and a single
// grand final (GF). There is no bracket reset.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slotCount := len(params.Slots)
	if err := validateSlotCount(slotCount); err != nil {
		return nil, err
	}

	nodes := winnersNodes(slotCount, models.SideWinners, "W")
	lbNodes, err := losersNodes(slotCount)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, lbNodes...)

	wbRounds := RoundCount(slotCount)
	gf := &node{uid: grandFinalUID, side: models.SideFinals, round: 1, position: 1}
	gf.sources[0] = winnerOf(matchUID("W", wbRounds, 1))
	if lbRounds := LosersRoundCount(slotCount); lbRounds > 0 {
		gf.sources[1] = winnerOf(matchUID("L", lbRounds, 1))
	} else {
		// two-slot bracket: the winners final loser goes straight to the grand final
		gf.sources[1] = loserOf(matchUID("W", 1, 1))
	}
	nodes = append(nodes, gf)

	return layout(nodes, params.Slots)
}

func losersNodes(slotCount int) ([]*node, error) {
	lbRounds := LosersRoundCount(slotCount)
	if lbRounds == 0 {
		return nil, nil
	}

	nodes := make([]*node, 0, slotCount-2)
	count := slotCount / 4
	for p := 1; p <= count; p++ {
		nodes = append(nodes, &node{uid: matchUID("L", 1, p), side: models.SideLosers, round: 1, position: p})
	}
	// LB round 1 is fed by WB round 1 losers
	if err := dropLosers(nodes, 1, slotCount/2); err != nil {
		return nil, err
	}

	for r := 2; r <= lbRounds; r++ {
		if r%2 == 1 {
			count /= 2
		}
		round := make([]*node, 0, count)
		for p := 1; p <= count; p++ {
			n := &node{uid: matchUID("L", r, p), side: models.SideLosers, round: r, position: p}
			if r%2 == 0 {
				n.sources[0] = winnerOf(matchUID("L", r-1, p))
			} else {
				n.sources = [2]source{
					winnerOf(matchUID("L", r-1, 2*p-1)),
					winnerOf(matchUID("L", r-1, 2*p)),
				}
			}
			round = append(round, n)
		}
		if r%2 == 0 {
			wbRound := r/2 + 1
			if err := dropLosers(round, wbRound, slotCount>>uint(wbRound)); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, round...)
	}
	return nodes, nil
}

// dropLosers wires the losers of every match in winners round wbRound into lbRound.
func dropLosers(lbRound []*node, wbRound, wbMatches int) error {
	for q := 1; q <= wbMatches; q++ {
		drop := LoserDropPosition(wbRound, q, wbMatches)
		if drop.Position < 1 || drop.Position > len(lbRound) {
			return fmt.Errorf("%w: loser of W round %d match %d maps outside losers round %d", ErrInvariantViolation, wbRound, q, drop.Round)
		}
		target := lbRound[drop.Position-1]
		if target.sources[drop.Slot-1].kind != "" {
			return fmt.Errorf("%w: losers match %s slot %d fed twice", ErrInvariantViolation, target.uid, drop.Slot)
		}
		target.sources[drop.Slot-1] = loserOf(matchUID("W", wbRound, q))
	}
	return nil
}
