package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/skatch-gg/skatch/internal/game"
)

// HistoryStore persists finished-match records. It satisfies
// game.HistorySink so the engine can append without knowing about pgx.
type HistoryStore struct{}

func NewHistoryStore() *HistoryStore { return &HistoryStore{} }

// AppendMatch inserts one finished-match row. Records are append-only;
// nothing in the game path ever reads them back.
func (h *HistoryStore) AppendMatch(ctx context.Context, rec game.MatchRecord) error {
	q := `INSERT INTO match_history (id, room_id, winner, players, reason, completed_at)
	      VALUES ($1, $2, $3, $4, $5, $6)`

	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			rec.ID, rec.RoomID, rec.Winner, rec.Players, rec.Reason, rec.CompletedAt,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert match record: %w", err)
	}
	return nil
}

// MatchesByWinner returns the match records won by the given username,
// newest first.
func (h *HistoryStore) MatchesByWinner(ctx context.Context, username string) ([]game.MatchRecord, error) {
	q := `SELECT id, room_id, winner, players, reason, completed_at
	      FROM match_history
	      WHERE winner=$1
	      ORDER BY completed_at DESC`

	rows, err := DB.Query(ctx, q, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query match history: %w", err)
	}
	defer rows.Close()

	var out []game.MatchRecord
	for rows.Next() {
		var rec game.MatchRecord
		if err := rows.Scan(&rec.ID, &rec.RoomID, &rec.Winner, &rec.Players, &rec.Reason, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
