package brackets

import (
	"fmt"
	"sort"

	"github.com/tonnahe171051/poolmate-sub002/models"
)

// ComputeStandings ranks the players of a finished stage. The champion is the winner
// of the terminal match; everyone else is ranked by how deep into the bracket the
// match that eliminated them was. advanceCount > 0 flags exactly advanceCount players;
// when a shared place straddles the cutoff the tie goes to more match wins, then more
// racks won, then the lower player id.
func ComputeStandings(a *Arena, advanceCount int) ([]models.Standing, error) {
	matches := a.Matches()
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: bracket has no matches", ErrStageRunning)
	}

	depth, err := matchDepths(a)
	if err != nil {
		return nil, err
	}

	type record struct {
		playerID   int
		wins       int
		racks      int
		losses     int
		eliminated *models.Match
		champion   bool
	}
	records := make(map[int]*record)
	get := func(id int) *record {
		r, ok := records[id]
		if !ok {
			r = &record{playerID: id}
			records[id] = r
		}
		return r
	}

	for _, m := range matches {
		for n := 1; n <= 2; n++ {
			if pid := m.Slot(n).PlayerID; pid != nil {
				get(*pid)
			}
		}
		if !m.IsCompleted() {
			if m.NextWinnerMatchID == nil {
				return nil, fmt.Errorf("%w: final match %d is not completed", ErrStageRunning, m.ID)
			}
			continue
		}
		if m.NextWinnerMatchID == nil {
			get(*m.WinnerID).champion = true
		}
		if m.IsBye() {
			continue
		}
		get(*m.WinnerID).wins++
		for n := 1; n <= 2; n++ {
			if pid, score := m.Slot(n).PlayerID, m.Score(n); pid != nil && score != nil {
				get(*pid).racks += *score
			}
		}
		if loser := m.LoserID(); loser != nil {
			r := get(*loser)
			r.losses++
			if m.NextLoserMatchID == nil {
				r.eliminated = m
			}
		}
	}

	list := make([]*record, 0, len(records))
	for _, r := range records {
		if !r.champion && r.eliminated == nil {
			return nil, fmt.Errorf("%w: player %d is still alive", ErrStageRunning, r.playerID)
		}
		list = append(list, r)
	}

	rank := func(r *record) int {
		if r.champion {
			return 1 << 30
		}
		return depth[r.eliminated.ID]
	}
	sort.Slice(list, func(i, j int) bool {
		ri, rj := rank(list[i]), rank(list[j])
		if ri != rj {
			return ri > rj
		}
		if list[i].wins != list[j].wins {
			return list[i].wins > list[j].wins
		}
		if list[i].racks != list[j].racks {
			return list[i].racks > list[j].racks
		}
		return list[i].playerID < list[j].playerID
	})

	standings := make([]models.Standing, 0, len(list))
	for i, r := range list {
		place := i + 1
		if i > 0 && rank(list[i-1]) == rank(r) {
			place = standings[i-1].Place
		}
		s := models.Standing{
			TournamentID: matches[0].TournamentID,
			StageID:      matches[0].StageID,
			PlayerID:     r.playerID,
			Place:        place,
			Wins:         r.wins,
			Losses:       r.losses,
			Advances:     advanceCount > 0 && i < advanceCount,
		}
		if r.eliminated != nil {
			s.EliminatedInMatchID = models.IntPtr(r.eliminated.ID)
		}
		standings = append(standings, s)
	}
	return standings, nil
}

// matchDepths returns the longest path (in matches) from round 1 to every match.
func matchDepths(a *Arena) (map[int]int, error) {
	depth := make(map[int]int)
	visiting := make(map[int]bool)

	var visit func(id int) (int, error)
	visit = func(id int) (int, error) {
		if d, ok := depth[id]; ok {
			return d, nil
		}
		if visiting[id] {
			return 0, fmt.Errorf("%w: cycle through match %d", ErrInvariantViolation, id)
		}
		visiting[id] = true
		m, err := a.MustGet(id)
		if err != nil {
			return 0, err
		}
		d := 1
		for n := 1; n <= 2; n++ {
			s := m.Slot(n)
			if s.SourceMatchID == nil {
				continue
			}
			up, err := visit(*s.SourceMatchID)
			if err != nil {
				return 0, err
			}
			if up+1 > d {
				d = up + 1
			}
		}
		visiting[id] = false
		depth[id] = d
		return d, nil
	}

	for _, m := range a.Matches() {
		if _, err := visit(m.ID); err != nil {
			return nil, err
		}
	}
	return depth, nil
}
