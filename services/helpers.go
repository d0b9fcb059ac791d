package services

import (
	"errors"

	"github.com/tonnahe171051/poolmate-sub002/models"
	"github.com/tonnahe171051/poolmate-sub002/repositories"
)

// mapRepositoryError переводит ошибки "не найдено" репозиториев в ошибки сервисов.
func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrStageNotFound):
		return ErrStageNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	}
	return err
}

// SideView groups the rounds of one bracket side.
type SideView struct {
	Side   models.BracketSide `json:"side"`
	Rounds []RoundView        `json:"rounds"`
}

type RoundView struct {
	Round   int             `json:"round"`
	Matches []*models.Match `json:"matches"`
}

// groupMatches arranges matches by side (winners/knockout, losers, finals) then
// round. Input order within a round is kept.
func groupMatches(matches []*models.Match) []SideView {
	order := []models.BracketSide{models.SideKnockout, models.SideWinners, models.SideLosers, models.SideFinals}
	bySide := make(map[models.BracketSide]map[int][]*models.Match)
	maxRound := make(map[models.BracketSide]int)
	for _, m := range matches {
		if bySide[m.BracketSide] == nil {
			bySide[m.BracketSide] = make(map[int][]*models.Match)
		}
		bySide[m.BracketSide][m.Round] = append(bySide[m.BracketSide][m.Round], m)
		if m.Round > maxRound[m.BracketSide] {
			maxRound[m.BracketSide] = m.Round
		}
	}

	views := make([]SideView, 0, len(bySide))
	for _, side := range order {
		rounds, ok := bySide[side]
		if !ok {
			continue
		}
		view := SideView{Side: side}
		for r := 1; r <= maxRound[side]; r++ {
			if ms, ok := rounds[r]; ok {
				view.Rounds = append(view.Rounds, RoundView{Round: r, Matches: ms})
			}
		}
		views = append(views, view)
	}
	return views
}
