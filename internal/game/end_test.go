// internal/game/end_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skatch-gg/skatch/internal/deck"
)

func TestHandScore(t *testing.T) {
	cases := []struct {
		name string
		hand []deck.Card
		want int
	}{
		{"empty", nil, 0},
		{"numerals", []deck.Card{"2H", "10D"}, 12},
		{"ace is one", []deck.Card{"AH"}, 1},
		{"faces", []deck.Card{"JH", "QD"}, 23},
		{"red kings are zero", []deck.Card{"KH", "KD"}, 0},
		{"black kings are thirteen", []deck.Card{"KC", "KS"}, 26},
		{"malformed scores zero", []deck.Card{"??", "2H"}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HandScore(tc.hand))
		})
	}
}

// endWith builds a finished session with exactly the given hands.
func endWith(t *testing.T, hands map[string][]deck.Card, caller string) *Result {
	t.Helper()
	players := make([]string, 0, len(hands))
	// fixed order so tests are stable
	for _, p := range []string{"alice", "bob", "carol", "dave"} {
		if _, ok := hands[p]; ok {
			players = append(players, p)
		}
	}
	s, err := NewSession("123456", players)
	require.NoError(t, err)
	s.Mu.Lock()
	s.Hands = hands
	s.SkatchCaller = caller
	s.Mu.Unlock()
	return s.EndGame()
}

func TestWinnerUniqueMinScore(t *testing.T) {
	res := endWith(t, map[string][]deck.Card{
		"alice": {"2H", "3H"}, // 5
		"bob":   {"2D"},       // 2
	}, "")
	assert.Equal(t, "bob", res.Winner)
	assert.Equal(t, ReasonMinScore, res.Reason)
	assert.Equal(t, []string{"bob"}, res.Tied)
	assert.Equal(t, map[string]int{"alice": 5, "bob": 2}, res.Scores)
}

func TestWinnerSkatchTiebreak(t *testing.T) {
	res := endWith(t, map[string][]deck.Card{
		"alice": {"2H"},
		"bob":   {"2D"},
	}, "alice")
	assert.Equal(t, "alice", res.Winner)
	assert.Equal(t, ReasonSkatchTiebreak, res.Reason)
	assert.ElementsMatch(t, []string{"alice", "bob"}, res.Tied)
}

func TestWinnerSkatchCallerNotAmongTied(t *testing.T) {
	// the caller lost the tie on score, so the caller cannot break it
	res := endWith(t, map[string][]deck.Card{
		"alice": {"2H"},
		"bob":   {"2D"},
		"carol": {"9S"},
	}, "carol")
	assert.NotEqual(t, ReasonSkatchTiebreak, res.Reason)
	assert.Contains(t, []string{"alice", "bob"}, res.Winner)
}

func TestWinnerFewestCards(t *testing.T) {
	res := endWith(t, map[string][]deck.Card{
		"alice": {"2H", "KH"}, // 2 in two cards
		"bob":   {"2D"},       // 2 in one card
	}, "")
	assert.Equal(t, "bob", res.Winner)
	assert.Equal(t, ReasonFewestCards, res.Reason)
}

func TestWinnerRandomFallback(t *testing.T) {
	res := endWith(t, map[string][]deck.Card{
		"alice": {"2H"},
		"bob":   {"2D"},
	}, "")
	assert.Equal(t, ReasonRandom, res.Reason)
	assert.Contains(t, []string{"alice", "bob"}, res.Winner)
	assert.ElementsMatch(t, []string{"alice", "bob"}, res.Tied)
}
