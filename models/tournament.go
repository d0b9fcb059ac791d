package models

import "time"

// BracketType определяет формат сетки турнира.
type BracketType string

const (
	BracketSingleElimination BracketType = "single_elimination"
	BracketDoubleElimination BracketType = "double_elimination"
)

func (b BracketType) Valid() bool {
	return b == BracketSingleElimination || b == BracketDoubleElimination
}

// OrderingMode определяет, как игроки расставляются по слотам первого раунда.
type OrderingMode string

const (
	OrderingSeeded   OrderingMode = "seeded"
	OrderingRandom   OrderingMode = "random"
	OrderingSetOrder OrderingMode = "set_order"
)

func (o OrderingMode) Valid() bool {
	switch o {
	case OrderingSeeded, OrderingRandom, OrderingSetOrder:
		return true
	}
	return false
}

// Tournament представляет турнир (агрегат). Движок сетки только читает его.
type Tournament struct {
	ID             int          `json:"id" db:"id"`
	Name           string       `json:"name" db:"name"`
	BracketType    BracketType  `json:"bracket_type" db:"bracket_type"`
	IsMultiStage   bool         `json:"is_multi_stage" db:"is_multi_stage"`
	AdvanceCount   *int         `json:"advance_count,omitempty" db:"advance_count"`
	Stage1Ordering OrderingMode `json:"stage1_ordering" db:"stage1_ordering"`
	Stage2Ordering OrderingMode `json:"stage2_ordering" db:"stage2_ordering"`
	WinnersRaceTo  int          `json:"winners_race_to" db:"winners_race_to"`
	LosersRaceTo   int          `json:"losers_race_to" db:"losers_race_to"`
	FinalsRaceTo   int          `json:"finals_race_to" db:"finals_race_to"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Stages  []TournamentStage  `json:"stages,omitempty" db:"-"`
	Players []TournamentPlayer `json:"players,omitempty" db:"-"`
	Matches []Match            `json:"matches,omitempty" db:"-"`
}

// RaceToFor возвращает race-to для матчей указанной стороны сетки.
// Нулевые значения заменяются race-to сетки победителей.
func (t *Tournament) RaceToFor(side BracketSide) int {
	switch side {
	case SideLosers:
		if t.LosersRaceTo > 0 {
			return t.LosersRaceTo
		}
	case SideFinals:
		if t.FinalsRaceTo > 0 {
			return t.FinalsRaceTo
		}
	}
	return t.WinnersRaceTo
}
