// internal/handlers/api.go
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/skatch-gg/skatch/internal/room"
)

// RoomsHandler serves the room collection and single-room operations:
//
//	POST   /api/rooms              create a room
//	GET    /api/rooms/{code}       fetch room info
//	POST   /api/rooms/{code}/join  add a player
//	DELETE /api/rooms/{code}      delete a room
func RoomsHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/rooms"), "/")

		if rest == "" {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			createRoom(g, w, r)
			return
		}

		parts := strings.Split(rest, "/")
		code := parts[0]

		if len(parts) == 2 && parts[1] == "join" {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			joinRoom(g, w, r, code)
			return
		}
		if len(parts) != 1 {
			http.NotFound(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			getRoom(g, w, code)
		case http.MethodDelete:
			deleteRoom(g, w, code)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func createRoom(g *Gateway, w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	// An empty body creates an empty room.
	_ = json.NewDecoder(r.Body).Decode(&req)

	var code string
	if req.PlayerName != "" {
		code = g.Registry.CreateRoomWithPlayer(req.PlayerName)
	} else {
		code = g.Registry.CreateRoom()
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, map[string]string{"roomId": code})
}

func getRoom(g *Gateway, w http.ResponseWriter, code string) {
	lobby, err := g.Registry.GetLobby(code)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	resp := map[string]interface{}{
		"roomId":  lobby.Code,
		"status":  lobby.Status,
		"players": lobby.Players,
	}
	if s, err := g.Registry.GetSession(code); err == nil {
		resp["game"] = s.PublicState()
	}
	writeJSON(w, resp)
}

func joinRoom(g *Gateway, w http.ResponseWriter, r *http.Request, code string) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerName == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	switch err := g.Registry.AddPlayer(code, req.PlayerName); err {
	case nil:
	case room.ErrRoomNotFound:
		http.Error(w, "room not found", http.StatusNotFound)
		return
	case room.ErrRoomClosed:
		http.Error(w, "game already in progress", http.StatusConflict)
		return
	default:
		http.Error(w, "failed to join room", http.StatusInternalServerError)
		return
	}

	lobby, err := g.Registry.GetLobby(code)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"roomId":  code,
		"players": lobby.Players,
	})
}

func deleteRoom(g *Gateway, w http.ResponseWriter, code string) {
	if err := g.Registry.DeleteRoom(code); err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
