package main

// pickCard chooses the next card index to flip, or -1 when no flip is
// possible. The broadcast state carries every card's symbol, so the bot plays
// with full knowledge of the board.
func pickCard(sess *Session) int {
	// Second flip: complete the pair for the card already face up.
	if len(sess.Revealed) == 1 {
		first := sess.Revealed[0]
		if first < 0 || first >= len(sess.Board) {
			return -1
		}
		want := sess.Board[first].Symbol
		for i, c := range sess.Board {
			if i != first && !c.Matched && c.Symbol == want {
				return i
			}
		}
		return -1
	}

	// First flip: open the lowest-index card of any unmatched pair.
	for i, c := range sess.Board {
		if c.Matched || c.Revealed {
			continue
		}
		for j := i + 1; j < len(sess.Board); j++ {
			other := sess.Board[j]
			if !other.Matched && !other.Revealed && other.Symbol == c.Symbol {
				return i
			}
		}
	}
	return -1
}
