// internal/handlers/history.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/skatch-gg/skatch/internal/database"
)

// HistoryHandler serves GET /api/history/{username}: the matches the user
// has won, newest first.
func HistoryHandler(store *database.HistoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		username := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/history"), "/")
		if username == "" || strings.Contains(username, "/") {
			http.Error(w, "missing username", http.StatusBadRequest)
			return
		}

		matches, err := store.MatchesByWinner(r.Context(), username)
		if err != nil {
			http.Error(w, "failed to query history", http.StatusInternalServerError)
			return
		}

		writeJSON(w, map[string]interface{}{
			"username": username,
			"matches":  matches,
		})
	}
}
