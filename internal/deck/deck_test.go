package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardDeckHas52UniqueCards(t *testing.T) {
	d := Standard()
	require.Len(t, d, 52)

	seen := make(map[Card]bool, 52)
	for _, c := range d {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	cases := []Deck{
		{},
		{"AH"},
		Standard(),
	}
	for _, original := range cases {
		shuffled := make(Deck, len(original))
		copy(shuffled, original)
		Shuffle(shuffled)

		require.Len(t, shuffled, len(original))
		counts := make(map[Card]int)
		for _, c := range original {
			counts[c]++
		}
		for _, c := range shuffled {
			counts[c]--
		}
		for card, n := range counts {
			assert.Zero(t, n, "card %s count changed", card)
		}
	}
}

func TestCardValueTotality(t *testing.T) {
	for _, c := range Standard() {
		v := c.Value()
		switch {
		case c.Rank() == "K" && (c.Suit() == "H" || c.Suit() == "D"):
			assert.Equal(t, 0, v, "red king %s", c)
		case c.Rank() == "K":
			assert.Equal(t, 13, v, "black king %s", c)
		case c.Rank() == "A":
			assert.Equal(t, 1, v)
		case c.Rank() == "J":
			assert.Equal(t, 11, v)
		case c.Rank() == "Q":
			assert.Equal(t, 12, v)
		default:
			assert.GreaterOrEqual(t, v, 2, "card %s", c)
			assert.LessOrEqual(t, v, 10, "card %s", c)
		}
	}
}

func TestCardValueMalformed(t *testing.T) {
	for _, c := range []Card{"", "H", "ZZ", "11X", "10", "KX"} {
		assert.Equal(t, 0, c.Value(), "card %q", c)
	}
}

func TestDrawFromTail(t *testing.T) {
	d := Deck{"2H", "3H", "4H"}
	card, err := d.Draw()
	require.NoError(t, err)
	assert.Equal(t, Card("4H"), card)
	assert.Equal(t, Deck{"2H", "3H"}, d)
}

func TestDrawEmptyDeckLeavesStateUntouched(t *testing.T) {
	d := Deck{}
	card, err := d.Draw()
	assert.ErrorIs(t, err, ErrEmptyDeck)
	assert.Equal(t, Card(""), card)
	assert.Empty(t, d)
}

func TestDealFront(t *testing.T) {
	d := Deck{"2H", "3H", "4H", "5H"}
	dealt := d.DealFront(3)
	assert.Equal(t, []Card{"2H", "3H", "4H"}, dealt)
	assert.Equal(t, Deck{"5H"}, d)

	rest := d.DealFront(5)
	assert.Equal(t, []Card{"5H"}, rest)
	assert.Empty(t, d)
}
