// internal/game/events.go
package game

import "github.com/skatch-gg/skatch/internal/deck"

// EventType names an outbound room-scoped notification.
type EventType string

const (
	EventUserJoined       EventType = "userJoined"
	EventUserLeft         EventType = "userLeft"
	EventPlayerReady      EventType = "playerReady"
	EventGameStarted      EventType = "gameStarted"
	EventHandDealt        EventType = "handDealt" // private, initial hand
	EventNextTurn         EventType = "nextTurnUpdate"
	EventFinalRound       EventType = "finalRoundStarted"
	EventCardDrawn        EventType = "cardDrawn"      // private, drawer only
	EventPlayerDrew       EventType = "playerDrewCard" // public, no card details
	EventDeckSize         EventType = "deckSizeUpdate"
	EventDiscardTop       EventType = "discardTopUpdate"
	EventClearDrawn       EventType = "clearDrawnCard" // private
	EventHandCardReset    EventType = "handCardReset"  // private
	EventRevealCard       EventType = "revealCard"     // private, owner only
	EventCardToReveal     EventType = "cardToRevealUpdate"
	EventCardToHide       EventType = "cardToHideUpdate"
	EventGameEnded        EventType = "gameEnded"
	EventGameState        EventType = "updateGameState"
	EventReceiveMessage   EventType = "receiveMessage"
	EventHoverOn          EventType = "hoverOnCardUpdate"
	EventHoverOff         EventType = "hoverOffCardUpdate"
	EventWebRTCReady      EventType = "webrtc_ready"
	EventVoiceICE         EventType = "ice_candidate"
	EventVoiceOffer       EventType = "offer"
	EventVoiceAnswer      EventType = "answer"
)

// Event is the broadcast envelope for every outbound notification. Optional
// fields are omitted from the wire when unset.
type Event struct {
	Type   EventType `json:"type"`
	RoomID string    `json:"roomId,omitempty"`

	PlayerName string   `json:"playerName,omitempty"`
	Players    []string `json:"players,omitempty"`

	Card     deck.Card `json:"card,omitempty"`
	DeckSize *int      `json:"deckSize,omitempty"`

	NextPlayer      string `json:"nextPlayer,omitempty"`
	CardContainerID string `json:"cardContainerID,omitempty"`
	Color           string `json:"color,omitempty"`
	Message         string `json:"message,omitempty"`

	// Payload carries event-specific fields that have no dedicated slot.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// BroadcastFunc delivers an event to every member of the session's room.
type BroadcastFunc func(ev Event)

// BroadcastToPlayerFunc delivers an event only to the named player.
type BroadcastToPlayerFunc func(player string, ev Event)

func intPtr(v int) *int { return &v }
