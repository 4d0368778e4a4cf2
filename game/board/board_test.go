package board

import (
	"testing"
)

func TestGenerate(t *testing.T) {
	t.Run("even dimensions", func(t *testing.T) {
		cards, err := Generate(4, 4)
		if err != nil {
			t.Fatalf("Failed to generate board: %v", err)
		}
		if len(cards) != 16 {
			t.Errorf("Expected 16 cards, got %d", len(cards))
		}
	})

	t.Run("odd cell count drops last slot", func(t *testing.T) {
		cards, err := Generate(5, 5)
		if err != nil {
			t.Fatalf("Failed to generate board: %v", err)
		}
		if len(cards) != 24 {
			t.Errorf("Expected 24 cards for 5x5, got %d", len(cards))
		}
	})

	t.Run("each symbol appears exactly twice", func(t *testing.T) {
		cards, err := Generate(6, 6)
		if err != nil {
			t.Fatalf("Failed to generate board: %v", err)
		}

		counts := make(map[int]int)
		for _, c := range cards {
			counts[c.Symbol]++
		}
		if len(counts) != len(cards)/2 {
			t.Errorf("Expected %d distinct symbols, got %d", len(cards)/2, len(counts))
		}
		for symbol, n := range counts {
			if n != 2 {
				t.Errorf("Symbol %d appears %d times, expected 2", symbol, n)
			}
		}
	})

	t.Run("cards start hidden and unmatched", func(t *testing.T) {
		cards, _ := Generate(3, 4)
		for i, c := range cards {
			if c.Revealed || c.Matched {
				t.Errorf("Card %d should start hidden and unmatched", i)
			}
		}
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		if _, err := Generate(0, 4); err == nil {
			t.Error("Expected error for zero rows")
		}
		if _, err := Generate(4, -1); err == nil {
			t.Error("Expected error for negative cols")
		}
	})
}

func TestAllMatched(t *testing.T) {
	cards, _ := Generate(3, 4)

	if AllMatched(cards) {
		t.Error("Fresh board should not be all matched")
	}

	for i := range cards {
		cards[i].Matched = true
	}
	if !AllMatched(cards) {
		t.Error("Fully matched board should report all matched")
	}

	if AllMatched(nil) {
		t.Error("Empty board should not report all matched")
	}
}
