package game

import (
	"lip-sprint/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type LeaveResult struct {
	Left       bool `json:"left"`
	RoomClosed bool `json:"room_closed"`
}

// CreateRoom opens a new lobby with the caller as host and initial turn
// holder.
func (e *Engine) CreateRoom(name, playerToken string) (string, error) {
	name, err := validatePlayerName(name)
	if err != nil {
		return "", err
	}
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return "", err
	}

	var code string
	err = e.db.Transaction(func(tx *gorm.DB) error {
		generated, err := e.generateUniqueRoomCode(tx)
		if err != nil {
			return err
		}

		now := e.now()
		session := db.Session{
			Code:                 generated,
			GameKey:              GameKey,
			Phase:                phaseLobby,
			HostToken:            token,
			TurnToken:            token,
			RoundNumber:          0,
			RoundDurationSeconds: DefaultRoundSeconds,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		player := db.Player{
			SessionID: session.ID,
			Token:     token,
			Name:      name,
			Score:     0,
			JoinedAt:  now,
		}
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
		if err := e.touchPresence(tx, session.ID, token); err != nil {
			return err
		}
		code = generated
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// JoinRoom adds the caller to an existing room. A token that already
// belongs to a player is treated as a reconnect: the name is refreshed and
// presence touched, absorbing client retries without erroring.
func (e *Engine) JoinRoom(code, name, playerToken string) (string, error) {
	name, err := validatePlayerName(name)
	if err != nil {
		return "", err
	}
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return "", err
	}

	var joinedCode string
	err = e.db.Transaction(func(tx *gorm.DB) error {
		session, err := e.sessionByCodeForUpdate(tx, code)
		if err != nil {
			return err
		}
		if session == nil {
			return notFound("room not found")
		}
		players, err := e.playersBySession(tx, session.ID)
		if err != nil {
			return err
		}

		if existing := findPlayerByToken(players, token); existing != nil {
			if err := tx.Model(&db.Player{}).Where("id = ?", existing.ID).
				Update("name", name).Error; err != nil {
				return err
			}
			if err := e.touchPresence(tx, session.ID, token); err != nil {
				return err
			}
			joinedCode = session.Code
			return nil
		}

		if len(players) >= maxPlayersPerRoom {
			return roomFull("this room already has 2 players")
		}

		player := db.Player{
			SessionID: session.ID,
			Token:     token,
			Name:      name,
			Score:     0,
			JoinedAt:  e.now(),
		}
		if err := tx.Create(&player).Error; err != nil {
			return err
		}
		if err := e.touchPresence(tx, session.ID, token); err != nil {
			return err
		}
		joinedCode = session.Code
		return nil
	})
	if err != nil {
		return "", err
	}
	return joinedCode, nil
}

// LeaveRoom removes the caller from a room. Leaving a room or membership
// that no longer exists is a no-op, not an error. The last player out
// closes the room entirely; otherwise host and turn fall to the remaining
// player and the phase resets to lobby.
func (e *Engine) LeaveRoom(code, playerToken string) (LeaveResult, error) {
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return LeaveResult{}, err
	}

	var result LeaveResult
	err = e.db.Transaction(func(tx *gorm.DB) error {
		session, err := e.sessionByCodeForUpdate(tx, code)
		if err != nil {
			return err
		}
		if session == nil {
			result = LeaveResult{Left: false, RoomClosed: true}
			return nil
		}
		players, err := e.playersBySession(tx, session.ID)
		if err != nil {
			return err
		}
		me := findPlayerByToken(players, token)
		if me == nil {
			result = LeaveResult{Left: false, RoomClosed: false}
			return nil
		}

		if err := deletePresence(tx, session.ID, token); err != nil {
			return err
		}
		if err := tx.Delete(&db.Player{}, me.ID).Error; err != nil {
			return err
		}

		var remaining []db.Player
		for _, player := range players {
			if player.Token != token {
				remaining = append(remaining, player)
			}
		}

		if len(remaining) == 0 {
			if err := deleteSessionPresence(tx, session.ID); err != nil {
				return err
			}
			if err := tx.Delete(&db.Session{}, session.ID).Error; err != nil {
				return err
			}
			result = LeaveResult{Left: true, RoomClosed: true}
			return nil
		}

		nextHost := session.HostToken
		if nextHost == token {
			nextHost = remaining[0].Token
		}
		nextTurn := session.TurnToken
		if findPlayerByToken(remaining, nextTurn) == nil {
			nextTurn = remaining[0].Token
		}

		updates := map[string]any{
			"host_token":    nextHost,
			"turn_token":    nextTurn,
			"phase":         phaseLobby,
			"round_ends_at": nil,
			"deck_card_ids": datatypes.JSONSlice[uint](nil),
			"deck_cursor":   nil,
			"updated_at":    e.now(),
		}
		if err := tx.Model(&db.Session{}).Where("id = ?", session.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		result = LeaveResult{Left: true, RoomClosed: false}
		return nil
	})
	if err != nil {
		return LeaveResult{}, err
	}
	return result, nil
}

// Heartbeat refreshes the caller's presence timestamp.
func (e *Engine) Heartbeat(code, playerToken string) error {
	token, err := validatePlayerToken(playerToken)
	if err != nil {
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		session, _, _, err := e.ensureParticipant(tx, code, token)
		if err != nil {
			return err
		}
		return e.touchPresence(tx, session.ID, token)
	})
}
