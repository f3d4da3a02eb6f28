// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/skatch-gg/skatch/internal/deck"
	"github.com/skatch-gg/skatch/internal/game"
	"github.com/skatch-gg/skatch/internal/middleware"
	"github.com/skatch-gg/skatch/internal/room"
)

// Subprotocol is the WebSocket subprotocol every game client must speak.
const Subprotocol = "skatch"

// ClientMessage is the single inbound frame shape. Every field beyond Type
// is optional; the dispatcher validates what each action actually needs and
// silently drops the rest.
type ClientMessage struct {
	Type       string `json:"type"`
	RoomID     string `json:"roomId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`

	Message         string `json:"message,omitempty"`
	CardContainerID string `json:"cardContainerID,omitempty"`
	Color           string `json:"color,omitempty"`
	HandIndex       *int   `json:"handIndex,omitempty"`
	NextPlayer      string `json:"nextPlayer,omitempty"`

	// Payload carries voice-signaling bodies (SDP, ICE) opaquely.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// WSHandler upgrades the connection and runs the read pump until the client
// goes away. All room membership changes triggered by the socket's lifetime
// (join on join_room, leave on disconnect) happen here.
func WSHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			g.Logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the skatch subprotocol")
			return
		}

		middleware.LogWebSocketConnect(g.Logger, remoteAddr, r.URL.Path)

		ctx, cancel := context.WithCancel(r.Context())
		cl := &client{
			out:    make(chan game.Event, 32),
			cancel: cancel,
		}

		go writePump(ctx, c, cl, g.Logger)

		readErr := readPump(ctx, c, cl, g)

		// ---- Cleanup after readPump exits ----
		cancel()
		g.handleDisconnect(cl)
		middleware.LogWebSocketDisconnect(g.Logger, remoteAddr, r.URL.Path, readErr)
	}
}

// readPump decodes inbound frames and dispatches them until the connection
// dies. Returns the terminal read error, nil for a normal close.
func readPump(ctx context.Context, c *websocket.Conn, cl *client, g *Gateway) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		typ, msg, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				return nil
			}
			if strings.Contains(err.Error(), "context canceled") {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			g.Logger.Warnf("ignoring non-text frame from %s", cl.name)
			continue
		}

		var m ClientMessage
		if err := json.Unmarshal(msg, &m); err != nil {
			g.Logger.WithError(err).Warn("dropping malformed client frame")
			continue
		}

		g.handleMessage(cl, m)
	}
}

// writePump serializes queued events onto the socket. It owns the write
// side of the connection exclusively.
func writePump(ctx context.Context, c *websocket.Conn, cl *client, logger *logrus.Logger) {
	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Ping(pingCtx)
			pingCancel()
			if err != nil {
				cl.cancel()
				return
			}
		case ev := <-cl.out:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.WithError(err).Warn("failed to marshal outbound event")
				continue
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, 10*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			writeCancel()
			if err != nil {
				cl.cancel()
				return
			}
		}
	}
}

// handleMessage dispatches one client action. Every action other than
// join_room requires the client to have joined a room first; frames that
// arrive earlier are dropped.
func (g *Gateway) handleMessage(cl *client, m ClientMessage) {
	if m.Type == "join_room" {
		g.handleJoinRoom(cl, m)
		return
	}
	if cl.room == "" || cl.name == "" {
		g.Logger.WithField("type", m.Type).Debug("dropping frame from client outside a room")
		return
	}

	switch m.Type {
	case "player_ready":
		g.handlePlayerReady(cl)

	case "send_message":
		if m.Message == "" {
			return
		}
		g.Broadcast(cl.room, game.Event{
			Type:       game.EventReceiveMessage,
			RoomID:     cl.room,
			PlayerName: cl.name,
			Message:    m.Message,
		})

	case "drawCard":
		if s, err := g.Registry.GetSession(cl.room); err == nil {
			s.Draw(cl.name)
		}

	case "discardDrawnCard":
		if s, err := g.Registry.GetSession(cl.room); err == nil {
			s.DiscardDrawn(cl.name)
			g.finishIfOver(cl.room, s)
		}

	case "swapDrawnWithHand":
		g.handleSwap(cl, m)

	case "skatch":
		if s, err := g.Registry.GetSession(cl.room); err == nil {
			s.CallLastRound(cl.name)
			g.finishIfOver(cl.room, s)
		}

	case "nextTurn":
		if s, err := g.Registry.GetSession(cl.room); err == nil {
			s.ForceNextTurn(cl.name, m.NextPlayer)
			g.finishIfOver(cl.room, s)
		}

	case "card_to_reveal":
		if s, err := g.Registry.GetSession(cl.room); err == nil {
			s.RevealOwnCard(cl.name, m.CardContainerID)
		}

	case "card_to_hide":
		if s, err := g.Registry.GetSession(cl.room); err == nil {
			s.HideCard(cl.name, m.CardContainerID)
		}

	case "hoverOnCard":
		g.Broadcast(cl.room, game.Event{
			Type:            game.EventHoverOn,
			RoomID:          cl.room,
			PlayerName:      cl.name,
			CardContainerID: m.CardContainerID,
			Color:           m.Color,
		})

	case "hoverOffCard":
		g.Broadcast(cl.room, game.Event{
			Type:            game.EventHoverOff,
			RoomID:          cl.room,
			PlayerName:      cl.name,
			CardContainerID: m.CardContainerID,
		})

	case "join_voice_chat":
		if initiator, ready := g.joinVoice(cl.room, cl.name); ready {
			// the first voice member initiates the peer connection
			g.Broadcast(cl.room, game.Event{
				Type:       game.EventWebRTCReady,
				RoomID:     cl.room,
				PlayerName: initiator,
			})
		}

	case "offer", "answer", "ice_candidate":
		g.relayVoiceSignal(cl, m)

	default:
		g.Logger.WithField("type", m.Type).Debug("dropping unknown client action")
	}
}

func (g *Gateway) handleJoinRoom(cl *client, m ClientMessage) {
	if m.RoomID == "" || m.PlayerName == "" {
		g.Logger.Debug("dropping join_room without room or player name")
		return
	}
	if err := g.Registry.AddPlayer(m.RoomID, m.PlayerName); err != nil {
		g.Logger.WithError(err).WithFields(logrus.Fields{
			"room":   m.RoomID,
			"player": m.PlayerName,
		}).Warn("join_room rejected")
		return
	}

	cl.room = m.RoomID
	cl.name = m.PlayerName
	g.register(cl)

	lobby, err := g.Registry.GetLobby(m.RoomID)
	if err != nil {
		return
	}
	g.Broadcast(cl.room, game.Event{
		Type:       game.EventUserJoined,
		RoomID:     cl.room,
		PlayerName: cl.name,
		Players:    lobby.Players,
	})
}

// handlePlayerReady records readiness; the last ready signal starts the
// game session and deals hands.
func (g *Gateway) handlePlayerReady(cl *client) {
	allReady, ready := g.Registry.MarkReady(cl.room, cl.name)

	g.Broadcast(cl.room, game.Event{
		Type:       game.EventPlayerReady,
		RoomID:     cl.room,
		PlayerName: cl.name,
		Players:    ready,
	})

	if !allReady {
		return
	}

	s, err := g.Registry.StartSession(cl.room)
	if err != nil {
		if err != room.ErrAlreadyInGame {
			g.Logger.WithError(err).WithField("room", cl.room).Warn("failed to start game")
		}
		return
	}
	g.bindSession(s)

	info := s.StartInfo()
	g.Broadcast(cl.room, game.Event{
		Type:   game.EventGameStarted,
		RoomID: cl.room,
		Payload: map[string]interface{}{
			"gameRoomId":     info.GameRoomID,
			"players":        info.Players,
			"dealerIndex":    info.DealerIndex,
			"turnIndex":      info.TurnIndex,
			"currentTurn":    info.CurrentTurn,
			"deckSize":       info.DeckSize,
			"cardsPerPlayer": info.CardsPerPlayer,
		},
	})

	// Each player learns their own hand privately.
	s.Mu.Lock()
	for _, p := range s.Players {
		hand := append([]deck.Card(nil), s.Hands[p]...)
		g.SendToPlayer(cl.room, p, game.Event{
			Type:    game.EventHandDealt,
			RoomID:  cl.room,
			Payload: map[string]interface{}{"hand": hand},
		})
	}
	s.Mu.Unlock()
}

func (g *Gateway) handleSwap(cl *client, m ClientMessage) {
	s, err := g.Registry.GetSession(cl.room)
	if err != nil {
		return
	}

	idx := -1
	if m.HandIndex != nil {
		idx = *m.HandIndex
	} else if owner, i, ok := game.ParseContainerID(m.CardContainerID); ok && owner == cl.name {
		idx = i
	}
	if idx < 0 {
		g.Logger.WithField("player", cl.name).Debug("swap without a usable hand slot")
		return
	}
	s.SwapDrawnWithHand(cl.name, idx)
	g.finishIfOver(cl.room, s)
}

// finishIfOver retires a terminal session so the lobby can host a rematch.
// The gameEnded broadcast has already gone out by the time this runs.
func (g *Gateway) finishIfOver(roomCode string, s *game.Session) {
	if s.IsOver() {
		g.Registry.EndSession(roomCode)
	}
}

// relayVoiceSignal forwards SDP offers/answers and ICE candidates to the
// rest of the room; the sender never receives its own signal back.
func (g *Gateway) relayVoiceSignal(cl *client, m ClientMessage) {
	var t game.EventType
	switch m.Type {
	case "offer":
		t = game.EventVoiceOffer
	case "answer":
		t = game.EventVoiceAnswer
	case "ice_candidate":
		t = game.EventVoiceICE
	}

	ev := game.Event{
		Type:       t,
		RoomID:     cl.room,
		PlayerName: cl.name,
		Payload:    m.Payload,
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for peer := range g.rooms[cl.room] {
		if peer == cl {
			continue
		}
		if !peer.send(ev) {
			g.Logger.WithField("player", peer.name).Warn("dropping voice signal for slow client")
		}
	}
}

// handleDisconnect tears down a client's room membership. If the leaver's
// room empties out, the registry deletes it.
func (g *Gateway) handleDisconnect(cl *client) {
	if cl.room == "" || cl.name == "" {
		return
	}
	g.unregister(cl)

	remaining, deleted := g.Registry.RemovePlayer(cl.room, cl.name)
	if deleted {
		return
	}
	g.Broadcast(cl.room, game.Event{
		Type:       game.EventUserLeft,
		RoomID:     cl.room,
		PlayerName: cl.name,
		Players:    remaining,
	})
}
