// internal/game/turns.go
package game

// advanceTurn moves play to the next player in rotation. Assumes Mu is held.
func (s *Session) advanceTurn() {
	if s.GameOver || len(s.Players) == 0 {
		return
	}

	curIdx := s.playerIndex(s.CurrentTurn)
	if curIdx < 0 {
		curIdx = 0
	}
	s.passTurnTo((curIdx + 1) % len(s.Players))
}

// passTurnTo hands the turn to the player at nextIdx, or ends the game when
// the final round has come back around to the skatch caller or the deck has
// run dry. Assumes Mu is held and nextIdx is in range.
//
// This is the only place CurrentTurn/TurnIndex change after the deal.
func (s *Session) passTurnTo(nextIdx int) {
	if s.FinalRoundActive && s.SkatchCaller != "" && s.Players[nextIdx] == s.SkatchCaller {
		// The round has returned to the caller.
		s.endGame()
		return
	}
	if len(s.Deck) == 0 {
		// Deck exhaustion ends the game regardless of the skatch mechanic.
		s.endGame()
		return
	}

	s.CurrentTurn = s.Players[nextIdx]
	s.TurnIndex = nextIdx
	if s.RoundStarter == s.CurrentTurn {
		s.CompletedRounds++
	}
	// A player's new turn never starts with a stale pending draw.
	delete(s.PendingDraw, s.CurrentTurn)

	s.fireEvent(Event{
		Type:       EventNextTurn,
		RoomID:     s.RoomCode,
		NextPlayer: s.CurrentTurn,
		Payload: map[string]interface{}{
			"completedRounds":  s.CompletedRounds,
			"finalRoundActive": s.FinalRoundActive,
			"skatchCaller":     s.SkatchCaller,
		},
	})
}

// CallLastRound starts the final round on the caller's behalf. All four
// preconditions must hold at once: it is the caller's turn, no final round
// is active yet, at least two full rounds have completed, and the caller
// holds no pending draw. Invoking it ends the caller's turn.
func (s *Session) CallLastRound(player string) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.GameOver {
		s.reject(player, "skatch", "game over")
		return false
	}
	if s.CurrentTurn != player {
		s.reject(player, "skatch", "not their turn")
		return false
	}
	if s.FinalRoundActive {
		s.reject(player, "skatch", "final round already active")
		return false
	}
	if s.CompletedRounds < 2 {
		s.reject(player, "skatch", "fewer than two completed rounds")
		return false
	}
	if _, pending := s.PendingDraw[player]; pending {
		s.reject(player, "skatch", "holding a pending draw")
		return false
	}

	s.FinalRoundActive = true
	s.SkatchCaller = player

	s.fireEvent(Event{
		Type:       EventFinalRound,
		RoomID:     s.RoomCode,
		PlayerName: player,
	})

	s.advanceTurn()
	return true
}

// ForceNextTurn handles the manual nextTurn override. The override is only
// honored when the requested player is exactly the rotation's next player;
// the transition then runs through advanceTurn so every end-of-game check
// still applies. Anything else is dropped.
func (s *Session) ForceNextTurn(sender, nextPlayer string) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.GameOver {
		s.reject(sender, "nextTurn", "game over")
		return false
	}
	if !s.isMember(sender) {
		s.reject(sender, "nextTurn", "not a member")
		return false
	}
	curIdx := s.playerIndex(s.CurrentTurn)
	if curIdx < 0 {
		curIdx = 0
	}
	if s.Players[(curIdx+1)%len(s.Players)] != nextPlayer {
		s.reject(sender, "nextTurn", "override does not match rotation")
		return false
	}

	s.advanceTurn()
	if !s.GameOver {
		s.fireEvent(Event{
			Type:    EventGameState,
			RoomID:  s.RoomCode,
			Payload: map[string]interface{}{"state": s.publicState()},
		})
	}
	return true
}
