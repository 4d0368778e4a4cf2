// Package board generates and inspects memory match card boards.
package board

import (
	"fmt"
	"math/rand"
)

// Card is a single slot on the memory board. Symbol identifies the pair the
// card belongs to; every symbol appears on exactly two cards.
type Card struct {
	Symbol   int  `json:"symbol"`
	Matched  bool `json:"matched"`
	Revealed bool `json:"revealed"`
}

// Generate produces a shuffled board for the given dimensions.
//
// The board has rows*cols slots, forced to an even count by dropping the last
// slot when rows*cols is odd. Each of the total/2 distinct symbols is placed
// exactly twice, at randomly shuffled positions.
func Generate(rows, cols int) ([]Card, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid board dimensions %dx%d", rows, cols)
	}

	total := rows * cols
	if total%2 != 0 {
		total--
	}

	cards := make([]Card, 0, total)
	for symbol := 0; symbol < total/2; symbol++ {
		cards = append(cards, Card{Symbol: symbol}, Card{Symbol: symbol})
	}

	rand.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return cards, nil
}

// AllMatched reports whether every card on the board has been matched.
func AllMatched(cards []Card) bool {
	for _, c := range cards {
		if !c.Matched {
			return false
		}
	}
	return len(cards) > 0
}
