// internal/game/session.go
package game

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skatch-gg/skatch/internal/deck"
)

// CardsPerPlayer is the hand size dealt to every player at game start.
const CardsPerPlayer = 6

// SessionPrefix namespaces a game session's id relative to its room code.
const SessionPrefix = "game_"

var (
	ErrEmptyPlayerList = errors.New("cannot start a game with no players")
)

// SessionID derives the session identifier from a room code.
func SessionID(roomCode string) string {
	return SessionPrefix + roomCode
}

// Session holds the entire authoritative state for one in-progress game.
// All mutation happens under Mu; the gateway holds the lock for the duration
// of each inbound action, so actions on the same session never interleave.
type Session struct {
	ID       string
	RoomCode string

	// Players is snapshotted from the lobby at game start; it only shrinks,
	// and only when a member disconnects.
	Players     []string
	Deck        deck.Deck
	Hands       map[string][]deck.Card
	DiscardPile []deck.Card

	DealerIndex int
	TurnIndex   int
	CurrentTurn string

	// PendingDraw holds at most one undecided drawn card, and only ever for
	// the current-turn player.
	PendingDraw map[string]deck.Card

	RoundStarter     string
	CompletedRounds  int
	FinalRoundActive bool
	SkatchCaller     string

	GameOver bool
	Result   *Result

	Mu sync.Mutex

	// BroadcastFn sends an event to all room members. If nil, no broadcast
	// is done.
	BroadcastFn BroadcastFunc

	// BroadcastToPlayerFn sends an event to a single player.
	BroadcastToPlayerFn BroadcastToPlayerFunc

	// History receives the finished match record. Appends are fire-and-forget.
	History HistorySink

	rng      *rand.Rand
	rejected int
}

// NewSession snapshots the lobby's players, shuffles a fresh deck, deals
// CardsPerPlayer cards to each player in order, and picks a random dealer.
// The first turn belongs to the player after the dealer.
func NewSession(roomCode string, players []string) (*Session, error) {
	if len(players) == 0 {
		return nil, ErrEmptyPlayerList
	}

	snapshot := make([]string, len(players))
	copy(snapshot, players)

	d := deck.Standard()
	deck.Shuffle(d)

	s := &Session{
		ID:          SessionID(roomCode),
		RoomCode:    roomCode,
		Players:     snapshot,
		Deck:        d,
		Hands:       make(map[string][]deck.Card, len(snapshot)),
		DiscardPile: []deck.Card{},
		PendingDraw: make(map[string]deck.Card),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, p := range snapshot {
		s.Hands[p] = s.Deck.DealFront(CardsPerPlayer)
	}

	s.DealerIndex = s.rng.Intn(len(snapshot))
	s.TurnIndex = (s.DealerIndex + 1) % len(snapshot)
	s.CurrentTurn = snapshot[s.TurnIndex]
	s.RoundStarter = s.CurrentTurn

	logrus.WithFields(logrus.Fields{
		"session": s.ID,
		"players": len(snapshot),
		"dealer":  snapshot[s.DealerIndex],
	}).Info("game session started")

	return s, nil
}

// reject drops an invalid action without mutating state or broadcasting.
// The trusted-client contract means the offending client only notices the
// missing follow-up broadcast; server-side we log and count it.
func (s *Session) reject(player, action, reason string) {
	s.rejected++
	logrus.WithFields(logrus.Fields{
		"session": s.ID,
		"player":  player,
		"action":  action,
		"reason":  reason,
	}).Debug("rejected game action")
}

// RejectedActions reports how many invalid actions have been dropped.
func (s *Session) RejectedActions() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.rejected
}

func (s *Session) isMember(name string) bool {
	for _, p := range s.Players {
		if p == name {
			return true
		}
	}
	return false
}

func (s *Session) playerIndex(name string) int {
	for i, p := range s.Players {
		if p == name {
			return i
		}
	}
	return -1
}

// fireEvent broadcasts to the whole room. Assumes Mu is held.
func (s *Session) fireEvent(ev Event) {
	if s.BroadcastFn != nil {
		s.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends a private event. Assumes Mu is held.
func (s *Session) fireEventToPlayer(player string, ev Event) {
	if s.BroadcastToPlayerFn != nil {
		s.BroadcastToPlayerFn(player, ev)
	}
}

// Draw pops one card off the deck tail into the player's pending-draw slot.
// The card value is revealed privately to the drawer; the room only learns
// that a draw happened and the new deck size. Returns true if the draw was
// applied.
func (s *Session) Draw(player string) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.GameOver {
		s.reject(player, "drawCard", "game over")
		return false
	}
	if !s.isMember(player) {
		s.reject(player, "drawCard", "not a member")
		return false
	}
	if s.CurrentTurn != "" && s.CurrentTurn != player {
		s.reject(player, "drawCard", "not their turn")
		return false
	}
	if _, pending := s.PendingDraw[player]; pending {
		s.reject(player, "drawCard", "already holding a drawn card")
		return false
	}

	card, err := s.Deck.Draw()
	if err != nil {
		s.reject(player, "drawCard", "deck empty")
		return false
	}
	s.PendingDraw[player] = card

	s.fireEventToPlayer(player, Event{Type: EventCardDrawn, Card: card})
	s.fireEvent(Event{Type: EventDeckSize, DeckSize: intPtr(len(s.Deck))})
	s.fireEvent(Event{Type: EventPlayerDrew, PlayerName: player})
	return true
}

// DiscardDrawn moves the player's pending card onto the discard pile and
// ends their turn.
func (s *Session) DiscardDrawn(player string) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.GameOver {
		s.reject(player, "discardDrawnCard", "game over")
		return false
	}
	if s.CurrentTurn != "" && s.CurrentTurn != player {
		s.reject(player, "discardDrawnCard", "not their turn")
		return false
	}
	drawn, ok := s.PendingDraw[player]
	if !ok {
		s.reject(player, "discardDrawnCard", "no pending draw")
		return false
	}

	s.DiscardPile = append(s.DiscardPile, drawn)
	delete(s.PendingDraw, player)

	s.fireEvent(Event{Type: EventDiscardTop, Card: drawn})
	s.fireEvent(Event{Type: EventDeckSize, DeckSize: intPtr(len(s.Deck))})
	s.fireEventToPlayer(player, Event{Type: EventClearDrawn})

	s.advanceTurn()
	return true
}

// SwapDrawnWithHand atomically replaces the hand card at handIndex with the
// player's pending card; the displaced card goes to the discard pile. The
// hand keeps its size throughout.
func (s *Session) SwapDrawnWithHand(player string, handIndex int) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.GameOver {
		s.reject(player, "swapDrawnWithHand", "game over")
		return false
	}
	if s.CurrentTurn != "" && s.CurrentTurn != player {
		s.reject(player, "swapDrawnWithHand", "not their turn")
		return false
	}
	drawn, ok := s.PendingDraw[player]
	if !ok {
		s.reject(player, "swapDrawnWithHand", "no pending draw")
		return false
	}
	hand := s.Hands[player]
	if handIndex < 0 || handIndex >= len(hand) {
		s.reject(player, "swapDrawnWithHand", "hand index out of range")
		return false
	}

	displaced := hand[handIndex]
	hand[handIndex] = drawn
	s.DiscardPile = append(s.DiscardPile, displaced)
	delete(s.PendingDraw, player)

	s.fireEvent(Event{Type: EventDiscardTop, Card: displaced})
	s.fireEvent(Event{Type: EventDeckSize, DeckSize: intPtr(len(s.Deck))})
	s.fireEventToPlayer(player, Event{Type: EventClearDrawn})
	s.fireEventToPlayer(player, Event{
		Type:            EventHandCardReset,
		CardContainerID: ContainerID(player, handIndex),
	})

	s.advanceTurn()
	return true
}

// ContainerID encodes a hand slot as "<owner>-<index>".
func ContainerID(owner string, index int) string {
	return owner + "-" + strconv.Itoa(index)
}

// ParseContainerID splits a "<owner>-<index>" container id at its last dash.
// Owner names may themselves contain dashes.
func ParseContainerID(id string) (owner string, index int, ok bool) {
	dash := strings.LastIndex(id, "-")
	if dash <= 0 {
		return "", 0, false
	}
	idx, err := strconv.Atoi(id[dash+1:])
	if err != nil || idx < 0 {
		return "", 0, false
	}
	return id[:dash], idx, true
}

// RevealOwnCard echoes the card at the requested container back to the
// requester, but only when they own it. Every reveal request additionally
// produces a public opaque indicator so opponents see that a card is up,
// without learning which card. Revealing never mutates the hand or the turn.
func (s *Session) RevealOwnCard(player, containerID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if owner, idx, ok := ParseContainerID(containerID); ok && owner == player {
		if hand := s.Hands[owner]; idx < len(hand) {
			s.fireEventToPlayer(player, Event{
				Type:            EventRevealCard,
				CardContainerID: containerID,
				Card:            hand[idx],
			})
		}
	}

	s.fireEvent(Event{
		Type:            EventCardToReveal,
		CardContainerID: containerID,
		PlayerName:      player,
	})
}

// HideCard reverts the public reveal indicator for a container.
func (s *Session) HideCard(player, containerID string) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	s.fireEvent(Event{
		Type:            EventCardToHide,
		CardContainerID: containerID,
		PlayerName:      player,
	})
}

// RemovePlayer drops a disconnected member from the session. If the leaver
// held the turn, the turn passes along the remaining rotation with the usual
// end-of-game checks. Returns the remaining member count.
func (s *Session) RemovePlayer(name string) int {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	idx := s.playerIndex(name)
	if idx < 0 {
		return len(s.Players)
	}

	hadTurn := s.CurrentTurn == name
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	delete(s.PendingDraw, name)

	if len(s.Players) == 0 {
		return 0
	}
	switch {
	case hadTurn && !s.GameOver:
		// The leaver's slot now holds the rotation's next player.
		s.passTurnTo(idx % len(s.Players))
	case hadTurn:
		if s.TurnIndex >= len(s.Players) {
			s.TurnIndex = 0
		}
	default:
		// The splice may have shifted the turn holder's slot.
		if i := s.playerIndex(s.CurrentTurn); i >= 0 {
			s.TurnIndex = i
		}
	}
	return len(s.Players)
}
