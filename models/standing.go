package models

// Standing is a final placement of a player within one stage.
// Players eliminated in the same round share a place.
type Standing struct {
	TournamentID        int  `json:"tournament_id" db:"tournament_id"`
	StageID             int  `json:"stage_id" db:"stage_id"`
	PlayerID            int  `json:"player_id" db:"player_id"`
	Place               int  `json:"place" db:"place"`
	Wins                int  `json:"wins" db:"wins"`
	Losses              int  `json:"losses" db:"losses"`
	EliminatedInMatchID *int `json:"eliminated_in_match_id,omitempty" db:"eliminated_in_match_id"`
	Advances            bool `json:"advances" db:"advances"`

	// Optional linked data, populated by service
	Player *TournamentPlayer `json:"player,omitempty" db:"-"`
}
