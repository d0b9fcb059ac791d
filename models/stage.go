package models

import "time"

type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
)

// TournamentStage is one bracket execution context of a tournament.
type TournamentStage struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	StageNumber  int          `json:"stage_number" db:"stage_number"`
	BracketType  BracketType  `json:"bracket_type" db:"bracket_type"`
	Ordering     OrderingMode `json:"ordering" db:"ordering"`
	AdvanceCount *int         `json:"advance_count,omitempty" db:"advance_count"`
	Status       StageStatus  `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

func (s *TournamentStage) IsLocked() bool {
	return s.Status == StageCompleted
}
