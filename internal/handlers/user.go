package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/skatch-gg/skatch/internal/auth"
	"github.com/skatch-gg/skatch/internal/database"
	"github.com/skatch-gg/skatch/internal/models"
)

// CreateUserHandler registers a new account. Duplicate usernames map to 409.
func CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	user := models.User{
		Username: req.Username,
		Password: req.Password,
	}

	if err := database.CreateUser(r.Context(), &user); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			http.Error(w, "username already exists", http.StatusConflict)
			return
		}
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	RoomID string `json:"roomId"`
}

// LoginHandler authenticates the user and creates a fresh room with the
// user already seated, so a successful login lands straight in a lobby.
//
// Response payload:
//
//	{
//	  "token": "{jwt}",
//	  "roomId": "123456"
//	}
//
// The token is also sent via the Cookie header.
func LoginHandler(g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}

		token, err := database.AuthenticateUser(context.Background(), req.Username, req.Password)
		if err != nil {
			log.Printf("failed to authenticate user: %v", err)
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}

		roomID := g.Registry.CreateRoomWithPlayer(req.Username)

		http.SetCookie(w, &http.Cookie{
			Name:     "auth_token",
			Value:    token,
			HttpOnly: true,
			Path:     "/",
			MaxAge:   auth.TokenExpireSec,
		})

		writeJSON(w, loginResponse{Token: token, RoomID: roomID})
	}
}

// UpdatePasswordHandler rotates a password after verifying the old one.
func UpdatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username    string `json:"username"`
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.NewPassword == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := database.UpdatePassword(r.Context(), req.Username, req.OldPassword, req.NewPassword); err != nil {
		http.Error(w, "failed to update password", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DeleteUserHandler removes an account after verifying its password.
func DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := database.DeleteUser(r.Context(), req.Username, req.Password); err != nil {
		http.Error(w, "failed to delete user", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
