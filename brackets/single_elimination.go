package brackets

import (
	"context"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket builds a knockout bracket. Matches are named KR<round>M<position>.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateSlotCount(len(params.Slots)); err != nil {
		return nil, err
	}
	nodes := winnersNodes(len(params.Slots), models.SideKnockout, "K")
	return layout(nodes, params.Slots)
}
