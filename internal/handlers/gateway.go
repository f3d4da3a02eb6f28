// internal/handlers/gateway.go
package handlers

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/skatch-gg/skatch/internal/bridge"
	"github.com/skatch-gg/skatch/internal/game"
	"github.com/skatch-gg/skatch/internal/room"
)

// Gateway owns every live WebSocket connection and routes room events to
// them. It is also the seam to the fan-out bridge: local events are
// published outward, and peer-instance events are delivered to local
// clients only.
type Gateway struct {
	Registry *room.Registry
	Bridge   bridge.Bridge
	History  game.HistorySink
	Logger   *logrus.Logger

	mu sync.Mutex
	// rooms maps a room code to its locally connected clients.
	rooms map[string]map[*client]struct{}
	// voice maps a room code to the names that joined the voice channel,
	// in join order; the first member initiates the peer connection.
	voice map[string][]string
	// unsubs holds one bridge unsubscribe func per locally observed room.
	unsubs map[string]func()
}

func NewGateway(reg *room.Registry, br bridge.Bridge, hist game.HistorySink, logger *logrus.Logger) *Gateway {
	if br == nil {
		br = bridge.Noop{}
	}
	return &Gateway{
		Registry: reg,
		Bridge:   br,
		History:  hist,
		Logger:   logger,
		rooms:    make(map[string]map[*client]struct{}),
		voice:    make(map[string][]string),
		unsubs:   make(map[string]func()),
	}
}

// client is one WebSocket connection bound to a player in a room.
type client struct {
	name string
	room string

	// out buffers events for the write pump; the pump owns the websocket
	// write side exclusively.
	out    chan game.Event
	cancel context.CancelFunc
}

// send queues an event without ever blocking the caller. A client whose
// buffer is full is too far behind to save; its pump will be torn down.
func (c *client) send(ev game.Event) bool {
	select {
	case c.out <- ev:
		return true
	default:
		return false
	}
}

// register binds a client to a room. The first client of a room also opens
// the bridge subscription so peer-instance events reach this instance.
func (g *Gateway) register(c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	set, ok := g.rooms[c.room]
	if !ok {
		set = make(map[*client]struct{})
		g.rooms[c.room] = set

		code := c.room
		unsub, err := g.Bridge.Subscribe(context.Background(), code, func(ev game.Event) {
			g.broadcastLocal(code, ev)
		})
		if err != nil {
			g.Logger.WithError(err).WithField("room", code).Warn("bridge subscribe failed")
		} else {
			g.unsubs[code] = unsub
		}
	}
	set[c] = struct{}{}
}

// unregister detaches a client; the last client of a room also closes the
// bridge subscription and the room's voice roster.
func (g *Gateway) unregister(c *client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	set, ok := g.rooms[c.room]
	if !ok {
		return
	}
	delete(set, c)
	if members, ok := g.voice[c.room]; ok {
		for i, m := range members {
			if m == c.name {
				g.voice[c.room] = append(members[:i], members[i+1:]...)
				break
			}
		}
	}
	if len(set) == 0 {
		delete(g.rooms, c.room)
		delete(g.voice, c.room)
		if unsub, ok := g.unsubs[c.room]; ok {
			unsub()
			delete(g.unsubs, c.room)
		}
	}
}

// broadcastLocal fans an event out to this instance's clients only.
func (g *Gateway) broadcastLocal(roomCode string, ev game.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for c := range g.rooms[roomCode] {
		if !c.send(ev) {
			g.Logger.WithFields(logrus.Fields{
				"room":   roomCode,
				"player": c.name,
			}).Warn("dropping event for slow client")
		}
	}
}

// Broadcast delivers an event to every local client of the room and
// publishes it for peer instances.
func (g *Gateway) Broadcast(roomCode string, ev game.Event) {
	g.broadcastLocal(roomCode, ev)
	if err := g.Bridge.Publish(context.Background(), roomCode, ev); err != nil {
		g.Logger.WithError(err).WithField("room", roomCode).Warn("bridge publish failed")
	}
}

// SendToPlayer delivers an event only to the named player. Private events
// stay on this instance: they are always responses to an action the player
// sent over a connection held here.
func (g *Gateway) SendToPlayer(roomCode, player string, ev game.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for c := range g.rooms[roomCode] {
		if c.name == player {
			if !c.send(ev) {
				g.Logger.WithFields(logrus.Fields{
					"room":   roomCode,
					"player": player,
				}).Warn("dropping private event for slow client")
			}
		}
	}
}

// bindSession wires a freshly started game session into the gateway's
// broadcast paths and the match-history sink.
func (g *Gateway) bindSession(s *game.Session) {
	code := s.RoomCode
	s.BroadcastFn = func(ev game.Event) { g.Broadcast(code, ev) }
	s.BroadcastToPlayerFn = func(player string, ev game.Event) { g.SendToPlayer(code, player, ev) }
	s.History = g.History
}

// VoiceJoinThreshold is how many voice members trigger the ready signal.
const VoiceJoinThreshold = 2

// joinVoice adds a member to the room's voice roster. When the roster just
// reached the signaling threshold it reports ready along with the initiator,
// the roster's first member.
func (g *Gateway) joinVoice(roomCode, player string) (initiator string, ready bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	members := g.voice[roomCode]
	for _, m := range members {
		if m == player {
			return "", false
		}
	}
	members = append(members, player)
	g.voice[roomCode] = members
	if len(members) != VoiceJoinThreshold {
		return "", false
	}
	return members[0], true
}
