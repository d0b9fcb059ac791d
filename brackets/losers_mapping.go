package brackets

// LoserDrop says where a winners-bracket loser lands in the losers bracket.
type LoserDrop struct {
	Round    int
	Position int
	Slot     int
}

// LoserDropPosition maps the loser of winners round wbRound, position wbPosition to
// its losers-bracket match. matchesInRound is the number of matches in wbRound.
//
// Round-1 losers are paired with each other in LB round 1. Losers of WB round r > 1
// enter LB round 2(r-1) in slot 2, against the survivors of the previous LB round.
// The drop order is reversed on even WB rounds so that a player does not meet the
// opponent coming from their own half of the winners bracket again right away.
func LoserDropPosition(wbRound, wbPosition, matchesInRound int) LoserDrop {
	if wbRound == 1 {
		slot := 2
		if wbPosition%2 == 1 {
			slot = 1
		}
		return LoserDrop{Round: 1, Position: (wbPosition + 1) / 2, Slot: slot}
	}
	position := wbPosition
	if wbRound%2 == 0 {
		position = matchesInRound + 1 - wbPosition
	}
	return LoserDrop{Round: 2 * (wbRound - 1), Position: position, Slot: 2}
}

// LosersRoundCount returns the number of losers-bracket rounds for a double
// elimination bracket of slotCount slots.
func LosersRoundCount(slotCount int) int {
	k := RoundCount(slotCount)
	if k < 2 {
		return 0
	}
	return 2 * (k - 1)
}
