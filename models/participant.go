package models

import "time"

type PlayerStatus string

const (
	PlayerPending   PlayerStatus = "pending"
	PlayerConfirmed PlayerStatus = "confirmed"
	PlayerWithdrawn PlayerStatus = "withdrawn"
)

// TournamentPlayer is a registration of a player in a tournament.
// Seed is nil for unseeded players.
type TournamentPlayer struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Name         string       `json:"name" db:"name"`
	Seed         *int         `json:"seed,omitempty" db:"seed"`
	Status       PlayerStatus `json:"status" db:"status"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}
