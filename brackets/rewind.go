package brackets

import (
	"fmt"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

// RewoundMatch records a downstream match that lost its result during a rewind.
type RewoundMatch struct {
	MatchID        int                `json:"match_id"`
	ClearedSlots   []int              `json:"cleared_slots"`
	PreviousStatus models.MatchStatus `json:"previous_status"`
	PreviousWinner *int               `json:"previous_winner_id,omitempty"`
	PreviousScore1 *int               `json:"previous_score1,omitempty"`
	PreviousScore2 *int               `json:"previous_score2,omitempty"`
	// Manual is true when the discarded result was entered by someone rather than
	// produced by a bye.
	Manual bool `json:"manual"`
}

// Rewind undoes everything propagated from the current result of matchID: slots
// filled from it are cleared and downstream matches that had results are reset to
// not_started, recursively. The match itself is left untouched.
func Rewind(a *Arena, matchID int) ([]RewoundMatch, error) {
	root, err := a.MustGet(matchID)
	if err != nil {
		return nil, err
	}
	if !root.IsCompleted() {
		return nil, fmt.Errorf("%w: match %d", ErrNoResult, matchID)
	}

	index := make(map[int]int)
	var rewound []RewoundMatch

	queue := []int{matchID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		src, err := a.MustGet(id)
		if err != nil {
			return nil, err
		}
		edges := []struct {
			next *int
			kind models.SlotSourceType
		}{
			{src.NextWinnerMatchID, models.SourceWinnerOf},
			{src.NextLoserMatchID, models.SourceLoserOf},
		}
		for _, e := range edges {
			if e.next == nil {
				continue
			}
			target, err := a.MustGet(*e.next)
			if err != nil {
				return nil, err
			}
			n := target.SlotSourcedFrom(e.kind, src.ID)
			if n == 0 {
				return nil, fmt.Errorf("%w: match %d has no %s slot for match %d", ErrInvariantViolation, target.ID, e.kind, src.ID)
			}
			slot := target.Slot(n)
			if !slot.Filled() {
				continue
			}
			slot.PlayerID = nil
			a.MarkChanged(target.ID)

			if i, seen := index[target.ID]; seen {
				rewound[i].ClearedSlots = append(rewound[i].ClearedSlots, n)
				continue
			}
			entry := RewoundMatch{
				MatchID:        target.ID,
				ClearedSlots:   []int{n},
				PreviousStatus: target.Status,
				PreviousWinner: target.WinnerID,
				PreviousScore1: target.Score1,
				PreviousScore2: target.Score2,
				Manual:         target.HasResult() && !target.IsBye(),
			}
			index[target.ID] = len(rewound)
			rewound = append(rewound, entry)

			if target.HasResult() {
				wasCompleted := target.IsCompleted()
				target.ClearResult()
				if wasCompleted {
					queue = append(queue, target.ID)
				}
			}
		}
	}
	return rewound, nil
}

// ManualResults filters rewound matches whose discarded result was entered by hand.
func ManualResults(rewound []RewoundMatch) []RewoundMatch {
	var out []RewoundMatch
	for _, r := range rewound {
		if r.Manual {
			out = append(out, r)
		}
	}
	return out
}
