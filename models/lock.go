package models

import "time"

// MatchLock is a short-lived advisory lock held while a client edits a match.
type MatchLock struct {
	MatchID   int       `json:"match_id"`
	LockID    string    `json:"lock_id"`
	Holder    string    `json:"holder"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (l *MatchLock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}
