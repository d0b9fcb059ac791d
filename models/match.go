package models

import "time"

type MatchStatus string

const (
	MatchNotStarted MatchStatus = "not_started"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
)

type BracketSide string

const (
	SideWinners  BracketSide = "winners"
	SideLosers   BracketSide = "losers"
	SideKnockout BracketSide = "knockout"
	SideFinals   BracketSide = "finals"
)

// SlotSourceType tells where a slot's player comes from.
type SlotSourceType string

const (
	SourceSeed     SlotSourceType = "seed"
	SourceWinnerOf SlotSourceType = "winner_of"
	SourceLoserOf  SlotSourceType = "loser_of"
	// SourceNone marks a slot that is structurally absent (the other side of a bye).
	SourceNone SlotSourceType = "none"
)

// MatchSlot is one of the two player positions of a match.
type MatchSlot struct {
	PlayerID      *int           `json:"player_id,omitempty"`
	SourceType    SlotSourceType `json:"source_type"`
	SourceMatchID *int           `json:"source_match_id,omitempty"`
}

func (s MatchSlot) Filled() bool {
	return s.PlayerID != nil
}

func (s MatchSlot) Absent() bool {
	return s.SourceType == SourceNone
}

func (s MatchSlot) clone() MatchSlot {
	return MatchSlot{
		PlayerID:      cloneInt(s.PlayerID),
		SourceType:    s.SourceType,
		SourceMatchID: cloneInt(s.SourceMatchID),
	}
}

type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	StageID      int         `json:"stage_id" db:"stage_id"`
	BracketSide  BracketSide `json:"bracket_side" db:"bracket_side"`
	Round        int         `json:"round" db:"round"`
	Position     int         `json:"position" db:"position"`
	BracketUID   string      `json:"bracket_uid" db:"bracket_uid"`

	Slot1 MatchSlot `json:"slot1" db:"-"`
	Slot2 MatchSlot `json:"slot2" db:"-"`

	TableID  *int        `json:"table_id,omitempty" db:"table_id"`
	RaceTo   int         `json:"race_to" db:"race_to"`
	Status   MatchStatus `json:"status" db:"status"`
	Score1   *int        `json:"score1,omitempty" db:"score1"`
	Score2   *int        `json:"score2,omitempty" db:"score2"`
	WinnerID *int        `json:"winner_id,omitempty" db:"winner_id"`

	NextWinnerMatchID *int `json:"next_winner_match_id,omitempty" db:"next_winner_match_id"`
	NextLoserMatchID  *int `json:"next_loser_match_id,omitempty" db:"next_loser_match_id"`

	Version   int64     `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Slot returns a pointer to slot 1 or 2.
func (m *Match) Slot(n int) *MatchSlot {
	if n == 1 {
		return &m.Slot1
	}
	return &m.Slot2
}

// Score returns the score recorded for slot n.
func (m *Match) Score(n int) *int {
	if n == 1 {
		return m.Score1
	}
	return m.Score2
}

// IsBye reports whether exactly one slot is structurally absent.
func (m *Match) IsBye() bool {
	return m.Slot1.Absent() != m.Slot2.Absent()
}

// ByeSlot returns the live slot of a bye match.
func (m *Match) ByeSlot() *MatchSlot {
	if m.Slot1.Absent() {
		return &m.Slot2
	}
	return &m.Slot1
}

func (m *Match) IsCompleted() bool {
	return m.Status == MatchCompleted
}

func (m *Match) HasPlayer(playerID int) bool {
	return (m.Slot1.PlayerID != nil && *m.Slot1.PlayerID == playerID) ||
		(m.Slot2.PlayerID != nil && *m.Slot2.PlayerID == playerID)
}

// LoserID returns the player that lost a completed non-bye match.
func (m *Match) LoserID() *int {
	if m.WinnerID == nil || m.IsBye() {
		return nil
	}
	if m.Slot1.PlayerID != nil && *m.Slot1.PlayerID != *m.WinnerID {
		return cloneInt(m.Slot1.PlayerID)
	}
	if m.Slot2.PlayerID != nil && *m.Slot2.PlayerID != *m.WinnerID {
		return cloneInt(m.Slot2.PlayerID)
	}
	return nil
}

// SlotSourcedFrom returns the slot number (1 or 2) fed by the given source, or 0.
func (m *Match) SlotSourcedFrom(sourceType SlotSourceType, sourceMatchID int) int {
	for n := 1; n <= 2; n++ {
		s := m.Slot(n)
		if s.SourceType == sourceType && s.SourceMatchID != nil && *s.SourceMatchID == sourceMatchID {
			return n
		}
	}
	return 0
}

// HasResult reports whether anything beyond slot fills was recorded on the match.
func (m *Match) HasResult() bool {
	return m.Status != MatchNotStarted || m.Score1 != nil || m.Score2 != nil || m.WinnerID != nil
}

// ClearResult resets the match to not_started, dropping scores, winner and table.
func (m *Match) ClearResult() {
	m.Status = MatchNotStarted
	m.Score1 = nil
	m.Score2 = nil
	m.WinnerID = nil
	m.TableID = nil
}

func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	c.Slot1 = m.Slot1.clone()
	c.Slot2 = m.Slot2.clone()
	c.TableID = cloneInt(m.TableID)
	c.Score1 = cloneInt(m.Score1)
	c.Score2 = cloneInt(m.Score2)
	c.WinnerID = cloneInt(m.WinnerID)
	c.NextWinnerMatchID = cloneInt(m.NextWinnerMatchID)
	c.NextLoserMatchID = cloneInt(m.NextLoserMatchID)
	return &c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// IntPtr is a small helper for optional int fields.
func IntPtr(v int) *int {
	return &v
}
