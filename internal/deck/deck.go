// internal/deck/deck.go
package deck

import (
	"errors"
	"math/rand"
	"time"
)

// ErrEmptyDeck is returned when drawing from a deck with no cards left.
var ErrEmptyDeck = errors.New("deck is empty")

// Card is a short rank+suit code such as "2H", "10D" or "KS".
// Ranks are 2-10, J, Q, K, A; suits are H, D, C, S.
type Card string

var suits = []string{"H", "D", "C", "S"}
var ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

var rankValues = map[string]int{
	"2": 2, "3": 3, "4": 4, "5": 5, "6": 6, "7": 7, "8": 8, "9": 9, "10": 10,
	"J": 11, "Q": 12, "A": 1,
}

// Rank returns the rank portion of the code, or "" for malformed cards.
func (c Card) Rank() string {
	if len(c) < 2 {
		return ""
	}
	return string(c[:len(c)-1])
}

// Suit returns the suit letter of the code, or "" for malformed cards.
func (c Card) Suit() string {
	if len(c) < 2 {
		return ""
	}
	return string(c[len(c)-1])
}

// Value returns the scoring value of the card. Numeral ranks score face
// value, Ace 1, Jack 11, Queen 12. Kings score 0 in hearts and diamonds,
// 13 otherwise. Unrecognized codes score 0.
func (c Card) Value() int {
	rank, suit := c.Rank(), c.Suit()
	if rank == "K" {
		switch suit {
		case "H", "D":
			return 0
		case "C", "S":
			return 13
		}
		return 0
	}
	if suit != "H" && suit != "D" && suit != "C" && suit != "S" {
		return 0
	}
	return rankValues[rank]
}

// Deck is an ordered sequence of cards. Cards are drawn from the tail;
// dealing consumes from the front.
type Deck []Card

// Standard returns a full 52-card deck in construction order, one card per
// (rank, suit) pair. No ordering beyond that is guaranteed.
func Standard() Deck {
	d := make(Deck, 0, 52)
	for _, suit := range suits {
		for _, rank := range ranks {
			d = append(d, Card(rank+suit))
		}
	}
	return d
}

// Shuffle permutes the deck in place using a Fisher-Yates shuffle.
// Statistical fairness only; not a cryptographic shuffle.
func Shuffle(d Deck) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}

// Draw removes and returns the card at the tail of the deck. On an empty
// deck it returns ErrEmptyDeck and leaves the deck untouched.
func (d *Deck) Draw() (Card, error) {
	if len(*d) == 0 {
		return "", ErrEmptyDeck
	}
	card := (*d)[len(*d)-1]
	*d = (*d)[:len(*d)-1]
	return card, nil
}

// DealFront removes and returns up to n cards from the front of the deck.
func (d *Deck) DealFront(n int) []Card {
	if n > len(*d) {
		n = len(*d)
	}
	dealt := make([]Card, n)
	copy(dealt, (*d)[:n])
	*d = (*d)[n:]
	return dealt
}
