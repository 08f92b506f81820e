package game

import (
	"math/rand/v2"
	"time"

	"lip-sprint/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ResultCorrect = "correct"
	ResultSkip    = "skip"
)

// shuffledCardIDs returns a uniform random permutation of the catalog ids.
func shuffledCardIDs(cards []db.Card) []uint {
	ids := make([]uint, len(cards))
	for i, card := range cards {
		ids[i] = card.ID
	}
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids
}

// finishRound moves the session to round_over, flips the turn to the other
// player and clears the deck and deadline. When the other player is gone
// the turn stays with the current holder.
func (e *Engine) finishRound(tx *gorm.DB, session *db.Session, players []db.Player) error {
	currentTurn := session.TurnToken
	if currentTurn == "" && len(players) > 0 {
		currentTurn = players[0].Token
	}
	nextTurn := currentTurn
	for _, player := range players {
		if player.Token != currentTurn {
			nextTurn = player.Token
			break
		}
	}

	updates := map[string]any{
		"phase":         phaseRoundOver,
		"turn_token":    nextTurn,
		"round_ends_at": nil,
		"deck_card_ids": datatypes.JSONSlice[uint](nil),
		"deck_cursor":   nil,
		"updated_at":    e.now(),
	}
	return tx.Model(&db.Session{}).Where("id = ?", session.ID).Updates(updates).Error
}

// StartRound begins a new timed round. Host only, exactly two players, a
// non-empty catalog. The requested duration is clamped into the allowed
// range rather than rejected.
func (e *Engine) StartRound(code, playerToken string, durationSeconds *int) (time.Time, error) {
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return time.Time{}, err
	}

	var endsAt time.Time
	err = e.db.Transaction(func(tx *gorm.DB) error {
		session, players, _, err := e.ensureParticipant(tx, code, token)
		if err != nil {
			return err
		}
		if session.HostToken != token {
			return forbidden("only the host can start rounds")
		}
		if len(players) != maxPlayersPerRoom {
			return invalidState("you need exactly 2 players to start a round")
		}
		cards, err := allCards(tx)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			return invalidState("add at least one card before starting")
		}

		duration := session.RoundDurationSeconds
		if durationSeconds != nil {
			duration = *durationSeconds
		}
		if duration < minRoundSeconds {
			duration = minRoundSeconds
		}
		if duration > maxRoundSeconds {
			duration = maxRoundSeconds
		}

		turnToken := session.TurnToken
		if turnToken == "" || findPlayerByToken(players, turnToken) == nil {
			turnToken = players[0].Token
		}

		now := e.now()
		endsAt = now.Add(time.Duration(duration) * time.Second)
		cursor := 0
		updates := map[string]any{
			"phase":                  phaseRound,
			"turn_token":             turnToken,
			"round_number":           session.RoundNumber + 1,
			"round_duration_seconds": duration,
			"round_ends_at":          endsAt,
			"deck_card_ids":          datatypes.NewJSONSlice(shuffledCardIDs(cards)),
			"deck_cursor":            cursor,
			"updated_at":             now,
		}
		return tx.Model(&db.Session{}).Where("id = ?", session.ID).Updates(updates).Error
	})
	if err != nil {
		return time.Time{}, err
	}
	return endsAt, nil
}

// MarkCardResult records the outcome of the card under the cursor. Only the
// turn holder may call it. A call arriving after the deadline ends the
// round without scoring: time expiry wins over the pending action.
func (e *Engine) MarkCardResult(code, playerToken, result string) (bool, error) {
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return false, err
	}
	if result != ResultCorrect && result != ResultSkip {
		return false, invalidInput("result must be %q or %q", ResultCorrect, ResultSkip)
	}

	ended := false
	err = e.db.Transaction(func(tx *gorm.DB) error {
		session, players, _, err := e.ensureParticipant(tx, code, token)
		if err != nil {
			return err
		}
		if session.Phase != phaseRound {
			return invalidState("no active round")
		}
		if session.TurnToken != token {
			return forbidden("only the active card reader can control cards")
		}

		now := e.now()
		if session.RoundEndsAt != nil && !now.Before(*session.RoundEndsAt) {
			ended = true
			return e.finishRound(tx, session, players)
		}

		deck := session.DeckCardIDs
		cursor := 0
		if session.DeckCursor != nil {
			cursor = *session.DeckCursor
		}
		if cursor >= len(deck) {
			ended = true
			return e.finishRound(tx, session, players)
		}

		if result == ResultCorrect {
			guesser := findPlayerByToken(players, guesserToken(players, session.TurnToken))
			if guesser != nil {
				if err := tx.Model(&db.Player{}).Where("id = ?", guesser.ID).
					Update("score", guesser.Score+1).Error; err != nil {
					return err
				}
			}
		}

		nextCursor := cursor + 1
		if nextCursor >= len(deck) {
			ended = true
			return e.finishRound(tx, session, players)
		}

		return tx.Model(&db.Session{}).Where("id = ?", session.ID).Updates(map[string]any{
			"deck_cursor": nextCursor,
			"updated_at":  now,
		}).Error
	})
	if err != nil {
		return false, err
	}
	return ended, nil
}

// EndRound lets either participant stop the round early. Calling it outside
// a round reports ended=false instead of failing.
func (e *Engine) EndRound(code, playerToken string) (bool, error) {
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return false, err
	}

	ended := false
	err = e.db.Transaction(func(tx *gorm.DB) error {
		session, players, _, err := e.ensureParticipant(tx, code, token)
		if err != nil {
			return err
		}
		if session.Phase != phaseRound {
			return nil
		}
		ended = true
		return e.finishRound(tx, session, players)
	})
	if err != nil {
		return false, err
	}
	return ended, nil
}

// ResetScores zeroes every player's score. Host only, valid in any phase.
func (e *Engine) ResetScores(code, playerToken string) error {
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		session, _, _, err := e.ensureParticipant(tx, code, token)
		if err != nil {
			return err
		}
		if session.HostToken != token {
			return forbidden("only the host can reset scores")
		}
		return tx.Model(&db.Player{}).Where("session_id = ?", session.ID).
			Update("score", 0).Error
	})
}
