// internal/room/registry.go
package room

import (
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skatch-gg/skatch/internal/game"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomClosed    = errors.New("room is not accepting players")
	ErrAlreadyInGame = errors.New("room already has a game in progress")
)

// Status is a lobby's lifecycle phase.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusInGame  Status = "in-game"
)

// Lobby is the pre-game grouping of players behind a room code. A lobby and
// a game session are deliberately distinct types; the registry holds each in
// its own table.
type Lobby struct {
	Code    string
	Status  Status
	Players []string // insertion-ordered
	Ready   map[string]bool
}

func (l *Lobby) hasPlayer(name string) bool {
	for _, p := range l.Players {
		if p == name {
			return true
		}
	}
	return false
}

// AllReady reports whether every lobby member has signaled ready. An empty
// lobby is never ready.
func (l *Lobby) AllReady() bool {
	if len(l.Players) == 0 {
		return false
	}
	for _, p := range l.Players {
		if !l.Ready[p] {
			return false
		}
	}
	return true
}

// Registry is the single owner of the room-code-to-state mapping. It is
// constructed at process start and injected wherever room state is needed;
// nothing else mutates the maps.
type Registry struct {
	mu       sync.Mutex
	rng      *rand.Rand
	lobbies  map[string]*Lobby
	sessions map[string]*game.Session
}

func NewRegistry() *Registry {
	return &Registry{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		lobbies:  make(map[string]*Lobby),
		sessions: make(map[string]*game.Session),
	}
}

// generateCode rejection-samples a 6-digit numeric code distinct from every
// live room code. Assumes mu is held.
func (r *Registry) generateCode() string {
	for {
		code := strconv.Itoa(100000 + r.rng.Intn(900000))
		if _, taken := r.lobbies[code]; taken {
			continue
		}
		if _, taken := r.sessions[game.SessionID(code)]; taken {
			continue
		}
		return code
	}
}

// CreateRoom inserts a fresh waiting lobby and returns its code.
func (r *Registry) CreateRoom() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := r.generateCode()
	r.lobbies[code] = &Lobby{
		Code:    code,
		Status:  StatusWaiting,
		Players: []string{},
		Ready:   make(map[string]bool),
	}
	logrus.WithField("room", code).Info("room created")
	return code
}

// CreateRoomWithPlayer creates a lobby seeded with one member, the shape the
// login flow uses.
func (r *Registry) CreateRoomWithPlayer(name string) string {
	code := r.CreateRoom()
	_ = r.AddPlayer(code, name)
	return code
}

// GetLobby returns the lobby for a code.
func (r *Registry) GetLobby(code string) (*Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lobbies[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return l, nil
}

// GetSession resolves a session by room code or by session id.
func (r *Registry) GetSession(code string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[code]; ok {
		return s, nil
	}
	if s, ok := r.sessions[game.SessionID(code)]; ok {
		return s, nil
	}
	return nil, ErrRoomNotFound
}

// AddPlayer idempotently adds a member to a waiting lobby.
func (r *Registry) AddPlayer(code, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[code]
	if !ok {
		return ErrRoomNotFound
	}
	if l.Status != StatusWaiting {
		return ErrRoomClosed
	}
	if !l.hasPlayer(name) {
		l.Players = append(l.Players, name)
	}
	return nil
}

// MarkReady records a member's ready signal and reports whether the whole
// lobby is now ready. Unknown rooms or non-members report false.
func (r *Registry) MarkReady(code, name string) (allReady bool, readyPlayers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[code]
	if !ok || !l.hasPlayer(name) {
		return false, nil
	}
	l.Ready[name] = true
	for _, p := range l.Players {
		if l.Ready[p] {
			readyPlayers = append(readyPlayers, p)
		}
	}
	return l.AllReady(), readyPlayers
}

// StartSession snapshots a ready lobby into a new game session, marks the
// lobby in-game, and registers the session under its derived id.
func (r *Registry) StartSession(code string) (*game.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if _, running := r.sessions[game.SessionID(code)]; running {
		return nil, ErrAlreadyInGame
	}

	s, err := game.NewSession(code, l.Players)
	if err != nil {
		return nil, err
	}
	l.Status = StatusInGame
	r.sessions[s.ID] = s
	return s, nil
}

// RemovePlayer drops a member from the lobby and any session for the same
// code. Rooms whose last member leaves are deleted outright. Returns the
// players remaining in the lobby and whether the room was deleted.
func (r *Registry) RemovePlayer(code, name string) (remaining []string, deleted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[game.SessionID(code)]; ok {
		left := s.RemovePlayer(name)
		switch {
		case left == 0:
			delete(r.sessions, s.ID)
		case s.IsOver():
			// The departure ended the game; retire the session so the
			// lobby can host a rematch.
			delete(r.sessions, s.ID)
			if l, ok := r.lobbies[code]; ok {
				l.Status = StatusWaiting
				l.Ready = make(map[string]bool)
			}
		}
	}

	l, ok := r.lobbies[code]
	if !ok {
		return nil, false
	}
	for i, p := range l.Players {
		if p == name {
			l.Players = append(l.Players[:i], l.Players[i+1:]...)
			break
		}
	}
	delete(l.Ready, name)

	if len(l.Players) == 0 {
		delete(r.lobbies, code)
		delete(r.sessions, game.SessionID(code))
		logrus.WithField("room", code).Info("room deleted (empty)")
		return nil, true
	}
	return append([]string(nil), l.Players...), false
}

// DeleteRoom removes a room and its session. Deleting an absent room is a
// no-op that reports ErrRoomNotFound; callers may ignore it.
func (r *Registry) DeleteRoom(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, hadLobby := r.lobbies[code]
	_, hadSession := r.sessions[game.SessionID(code)]
	delete(r.lobbies, code)
	delete(r.sessions, game.SessionID(code))

	if !hadLobby && !hadSession {
		return ErrRoomNotFound
	}
	logrus.WithField("room", code).Info("room deleted")
	return nil
}

// EndSession drops a finished session but keeps the lobby so the same room
// can host another game.
func (r *Registry) EndSession(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, game.SessionID(code))
	if l, ok := r.lobbies[code]; ok {
		l.Status = StatusWaiting
		l.Ready = make(map[string]bool)
	}
}
