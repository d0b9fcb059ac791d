package models

import "time"

type BracketEventType string

const (
	EventBracketCreated BracketEventType = "BRACKET_CREATED"
	EventMatchUpdated   BracketEventType = "MATCH_UPDATED"
	EventMatchCompleted BracketEventType = "MATCH_COMPLETED"
	EventMatchCorrected BracketEventType = "MATCH_CORRECTED"
	EventStageCompleted BracketEventType = "STAGE_COMPLETED"
)

// BracketEvent is handed to notifiers after a bracket changed.
// MatchIDs lists every match whose row was written.
type BracketEvent struct {
	Type         BracketEventType `json:"type"`
	TournamentID int              `json:"tournament_id"`
	StageID      int              `json:"stage_id"`
	MatchIDs     []int            `json:"match_ids"`
	OccurredAt   time.Time        `json:"occurred_at"`
}
