// internal/game/end.go
package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/skatch-gg/skatch/internal/deck"
)

// Win reasons, in tie-break precedence order.
const (
	ReasonMinScore       = "min_score"
	ReasonSkatchTiebreak = "skatch_tiebreak"
	ReasonFewestCards    = "fewest_cards"
	ReasonRandom         = "random"
)

// DrawMarker is recorded as the winner when no winner resolved.
const DrawMarker = "draw"

// Result is the terminal outcome of a session.
type Result struct {
	Winner string         `json:"winner"`
	Tied   []string       `json:"tied"`
	Scores map[string]int `json:"scores"`
	Reason string         `json:"reason"`
}

// MatchRecord is the append-only history entry produced once per finished
// session. The core never reads these back.
type MatchRecord struct {
	ID          uuid.UUID
	RoomID      string
	Winner      string
	Players     []string
	Reason      string
	CompletedAt time.Time
}

// HistorySink receives finished-match records. Implementations must not
// block game logic; the engine calls AppendMatch from its own goroutine and
// only logs failures.
type HistorySink interface {
	AppendMatch(ctx context.Context, rec MatchRecord) error
}

// HandScore sums the card values of a hand. Lower is better.
func HandScore(hand []deck.Card) int {
	total := 0
	for _, c := range hand {
		total += c.Value()
	}
	return total
}

// EndGame finalizes the session immediately. Normally the turn coordinator
// ends the game itself; this entry point exists for registry teardown paths.
func (s *Session) EndGame() *Result {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if !s.GameOver {
		s.endGame()
	}
	return s.Result
}

// endGame scores every hand, resolves the winner, broadcasts the full
// reveal, and hands the record to the history sink. Assumes Mu is held.
// The session is not reusable afterwards.
func (s *Session) endGame() {
	s.GameOver = true

	scores := make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		scores[p] = HandScore(s.Hands[p])
	}

	winner, tied, reason := s.resolveWinner(scores)
	s.Result = &Result{Winner: winner, Tied: tied, Scores: scores, Reason: reason}

	hands := make(map[string][]deck.Card, len(s.Players))
	for _, p := range s.Players {
		hands[p] = s.Hands[p]
	}
	s.fireEvent(Event{
		Type:   EventGameEnded,
		RoomID: s.RoomCode,
		Payload: map[string]interface{}{
			"hands":  hands,
			"scores": scores,
			"winner": winner,
			"tied":   tied,
			"reason": reason,
		},
	})

	logrus.WithFields(logrus.Fields{
		"session": s.ID,
		"winner":  winner,
		"reason":  reason,
	}).Info("game ended")

	if s.History != nil {
		rec := MatchRecord{
			ID:          uuid.New(),
			RoomID:      s.RoomCode,
			Winner:      winner,
			Players:     append([]string(nil), s.Players...),
			Reason:      reason,
			CompletedAt: time.Now().UTC(),
		}
		if rec.Winner == "" {
			rec.Winner = DrawMarker
		}
		// Fire and forget: state is already final, a sink failure must not
		// affect the game-ended broadcast.
		go func(sink HistorySink, rec MatchRecord) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := sink.AppendMatch(ctx, rec); err != nil {
				logrus.WithError(err).WithField("room", rec.RoomID).
					Warn("failed to append match history")
			}
		}(s.History, rec)
	}
}

// resolveWinner applies the tie-break chain: unique minimum score, then the
// skatch caller among the tied, then fewest cards in hand, then a uniform
// random pick. Assumes Mu is held.
func (s *Session) resolveWinner(scores map[string]int) (winner string, tied []string, reason string) {
	if len(s.Players) == 0 {
		return "", nil, ReasonRandom
	}

	min := scores[s.Players[0]]
	for _, p := range s.Players[1:] {
		if scores[p] < min {
			min = scores[p]
		}
	}
	for _, p := range s.Players {
		if scores[p] == min {
			tied = append(tied, p)
		}
	}

	if len(tied) == 1 {
		return tied[0], tied, ReasonMinScore
	}

	if s.SkatchCaller != "" {
		for _, p := range tied {
			if p == s.SkatchCaller {
				return p, tied, ReasonSkatchTiebreak
			}
		}
	}

	fewest := len(s.Hands[tied[0]])
	for _, p := range tied[1:] {
		if len(s.Hands[p]) < fewest {
			fewest = len(s.Hands[p])
		}
	}
	var shortest []string
	for _, p := range tied {
		if len(s.Hands[p]) == fewest {
			shortest = append(shortest, p)
		}
	}
	if len(shortest) == 1 {
		return shortest[0], tied, ReasonFewestCards
	}

	return shortest[s.rng.Intn(len(shortest))], tied, ReasonRandom
}
