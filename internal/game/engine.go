package game

import (
	"errors"
	"time"

	"lip-sprint/internal/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// GameKey discriminates session rows so other games can share the table.
	GameKey = "lip-reading"

	phaseLobby     = "lobby"
	phaseRound     = "round"
	phaseRoundOver = "round_over"

	maxPlayersPerRoom = 2

	// DefaultRoundSeconds is used when a round is started without an
	// explicit duration.
	DefaultRoundSeconds = 60
	minRoundSeconds     = 20
	maxRoundSeconds     = 180

	// PresenceStaleMS is shared with clients so the displayed online status
	// matches the server's judgment.
	PresenceStaleMS = 15_000
)

// Engine is the authoritative room session state machine. Every mutation
// executes as a single transaction against the store; there are no
// background timers, round expiry is recomputed from the clock on each
// read and write.
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

func New(conn *gorm.DB) *Engine {
	return &Engine{
		db:  conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (e *Engine) sessionByCode(tx *gorm.DB, code string) (*db.Session, error) {
	var session db.Session
	err := tx.Where("code = ? AND game_key = ?", normalizeCode(code), GameKey).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// lockForUpdate takes a row lock on the loaded rows so mutations against
// the same session serialize. Read committed alone lets two joins both
// pass the player-count check. sqlite rejects FOR UPDATE and already
// serializes writers.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// sessionByCodeForUpdate is the mutation-path load; the snapshot read path
// uses sessionByCode and takes no lock.
func (e *Engine) sessionByCodeForUpdate(tx *gorm.DB, code string) (*db.Session, error) {
	return e.sessionByCode(lockForUpdate(tx), code)
}

// playersBySession returns players in join order. The id tie-break keeps
// the order stable when two players share a joined_at timestamp.
func (e *Engine) playersBySession(tx *gorm.DB, sessionID uint) ([]db.Player, error) {
	var players []db.Player
	err := tx.Where("session_id = ?", sessionID).
		Order("joined_at ASC, id ASC").
		Find(&players).Error
	if err != nil {
		return nil, err
	}
	return players, nil
}

func findPlayerByToken(players []db.Player, token string) *db.Player {
	for i := range players {
		if players[i].Token == token {
			return &players[i]
		}
	}
	return nil
}

// guesserToken is the token of the player not holding the turn.
func guesserToken(players []db.Player, turnToken string) string {
	if turnToken == "" {
		return ""
	}
	for i := range players {
		if players[i].Token != turnToken {
			return players[i].Token
		}
	}
	return ""
}

// ensureParticipant loads the session and players for a room and verifies
// the caller is a member. A missing room is NotFound; a present room
// without the caller is Forbidden. The session row is locked because every
// caller goes on to mutate the room.
func (e *Engine) ensureParticipant(tx *gorm.DB, code, token string) (*db.Session, []db.Player, *db.Player, error) {
	session, err := e.sessionByCodeForUpdate(tx, code)
	if err != nil {
		return nil, nil, nil, err
	}
	if session == nil {
		return nil, nil, nil, notFound("room not found")
	}
	players, err := e.playersBySession(tx, session.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	me := findPlayerByToken(players, token)
	if me == nil {
		return nil, nil, nil, forbidden("you are not in this room")
	}
	return session, players, me, nil
}
