// internal/game/state.go
package game

import "github.com/skatch-gg/skatch/internal/deck"

// PublicState is a session snapshot containing no hidden information:
// hand contents and pending draws are reduced to sizes and flags.
type PublicState struct {
	GameRoomID       string         `json:"gameRoomId"`
	Players          []string       `json:"players"`
	DeckSize         int            `json:"deckSize"`
	DiscardTop       deck.Card      `json:"discardTop,omitempty"`
	DiscardSize      int            `json:"discardSize"`
	HandSizes        map[string]int `json:"handSizes"`
	DealerIndex      int            `json:"dealerIndex"`
	TurnIndex        int            `json:"turnIndex"`
	CurrentTurn      string         `json:"currentTurn"`
	CompletedRounds  int            `json:"completedRounds"`
	FinalRoundActive bool           `json:"finalRoundActive"`
	SkatchCaller     string         `json:"skatchCaller,omitempty"`
	GameOver         bool           `json:"gameOver"`
}

// publicState builds the snapshot. Assumes Mu is held.
func (s *Session) publicState() PublicState {
	st := PublicState{
		GameRoomID:       s.ID,
		Players:          append([]string(nil), s.Players...),
		DeckSize:         len(s.Deck),
		DiscardSize:      len(s.DiscardPile),
		HandSizes:        make(map[string]int, len(s.Players)),
		DealerIndex:      s.DealerIndex,
		TurnIndex:        s.TurnIndex,
		CurrentTurn:      s.CurrentTurn,
		CompletedRounds:  s.CompletedRounds,
		FinalRoundActive: s.FinalRoundActive,
		SkatchCaller:     s.SkatchCaller,
		GameOver:         s.GameOver,
	}
	if n := len(s.DiscardPile); n > 0 {
		st.DiscardTop = s.DiscardPile[n-1]
	}
	for _, p := range s.Players {
		st.HandSizes[p] = len(s.Hands[p])
	}
	return st
}

// PublicState returns a snapshot safe to broadcast to any room member.
func (s *Session) PublicState() PublicState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.publicState()
}

// IsOver reports whether the session has reached its terminal state.
func (s *Session) IsOver() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.GameOver
}

// StartInfo is the gameStarted payload: full initial deal metadata without
// any hand contents.
type StartInfo struct {
	GameRoomID     string   `json:"gameRoomId"`
	Players        []string `json:"players"`
	DealerIndex    int      `json:"dealerIndex"`
	TurnIndex      int      `json:"turnIndex"`
	CurrentTurn    string   `json:"currentTurn"`
	DeckSize       int      `json:"deckSize"`
	CardsPerPlayer int      `json:"cardsPerPlayer"`
}

// StartInfo returns the metadata broadcast when the session begins.
func (s *Session) StartInfo() StartInfo {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return StartInfo{
		GameRoomID:     s.ID,
		Players:        append([]string(nil), s.Players...),
		DealerIndex:    s.DealerIndex,
		TurnIndex:      s.TurnIndex,
		CurrentTurn:    s.CurrentTurn,
		DeckSize:       len(s.Deck),
		CardsPerPlayer: CardsPerPlayer,
	}
}
