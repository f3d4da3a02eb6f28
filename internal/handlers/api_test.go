// internal/handlers/api_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skatch-gg/skatch/internal/bridge"
	"github.com/skatch-gg/skatch/internal/room"
)

func newTestGateway() *Gateway {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewGateway(room.NewRegistry(), bridge.Noop{}, nil, logger)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateRoomEndpoint(t *testing.T) {
	g := newTestGateway()
	h := RoomsHandler(g)

	rec := doJSON(t, h, http.MethodPost, "/api/rooms", `{"playerName":"alice"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	code := resp["roomId"]
	assert.Len(t, code, 6)

	lobby, err := g.Registry.GetLobby(code)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, lobby.Players)
}

func TestCreateRoomWithoutBody(t *testing.T) {
	g := newTestGateway()
	rec := doJSON(t, RoomsHandler(g), http.MethodPost, "/api/rooms", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	lobby, err := g.Registry.GetLobby(resp["roomId"])
	require.NoError(t, err)
	assert.Empty(t, lobby.Players)
}

func TestGetRoomEndpoint(t *testing.T) {
	g := newTestGateway()
	h := RoomsHandler(g)
	code := g.Registry.CreateRoomWithPlayer("alice")

	rec := doJSON(t, h, http.MethodGet, "/api/rooms/"+code, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, code, resp["roomId"])
	assert.Equal(t, "waiting", resp["status"])
	assert.Nil(t, resp["game"], "no game section before the session starts")

	rec = doJSON(t, h, http.MethodGet, "/api/rooms/000000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRoomIncludesGameState(t *testing.T) {
	g := newTestGateway()
	h := RoomsHandler(g)
	code := g.Registry.CreateRoomWithPlayer("alice")
	require.NoError(t, g.Registry.AddPlayer(code, "bob"))
	g.Registry.MarkReady(code, "alice")
	g.Registry.MarkReady(code, "bob")
	_, err := g.Registry.StartSession(code)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodGet, "/api/rooms/"+code, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	game, ok := resp["game"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(40), game["deckSize"])
	assert.Equal(t, "in-game", resp["status"])
}

func TestJoinRoomEndpoint(t *testing.T) {
	g := newTestGateway()
	h := RoomsHandler(g)
	code := g.Registry.CreateRoomWithPlayer("alice")

	rec := doJSON(t, h, http.MethodPost, "/api/rooms/"+code+"/join", `{"playerName":"bob"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []interface{}{"alice", "bob"}, resp["players"])

	rec = doJSON(t, h, http.MethodPost, "/api/rooms/000000/join", `{"playerName":"bob"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/rooms/"+code+"/join", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJoinRoomInGameConflicts(t *testing.T) {
	g := newTestGateway()
	h := RoomsHandler(g)
	code := g.Registry.CreateRoomWithPlayer("alice")
	require.NoError(t, g.Registry.AddPlayer(code, "bob"))
	g.Registry.MarkReady(code, "alice")
	g.Registry.MarkReady(code, "bob")
	_, err := g.Registry.StartSession(code)
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/api/rooms/"+code+"/join", `{"playerName":"carol"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteRoomEndpoint(t *testing.T) {
	g := newTestGateway()
	h := RoomsHandler(g)
	code := g.Registry.CreateRoomWithPlayer("alice")

	rec := doJSON(t, h, http.MethodDelete, "/api/rooms/"+code, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/rooms/"+code, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoomsMethodNotAllowed(t *testing.T) {
	g := newTestGateway()
	h := RoomsHandler(g)

	rec := doJSON(t, h, http.MethodGet, "/api/rooms", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
