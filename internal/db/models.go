package db

import (
	"time"

	"gorm.io/datatypes"
)

// Session is one active room. Round fields (RoundEndsAt, DeckCardIDs,
// DeckCursor) are set while the phase is "round" and nil otherwise.
type Session struct {
	ID                   uint   `gorm:"primaryKey"`
	Code                 string `gorm:"size:8;uniqueIndex;not null"`
	GameKey              string `gorm:"size:32;not null"`
	Phase                string `gorm:"size:16;not null"`
	HostToken            string `gorm:"size:128;not null"`
	TurnToken            string `gorm:"size:128"`
	RoundNumber          int    `gorm:"not null;default:0"`
	RoundDurationSeconds int    `gorm:"not null"`
	RoundEndsAt          *time.Time
	DeckCardIDs          datatypes.JSONSlice[uint]
	DeckCursor           *int
	CreatedAt            time.Time `gorm:"not null"`
	UpdatedAt            time.Time `gorm:"not null"`
}

type Player struct {
	ID        uint      `gorm:"primaryKey"`
	SessionID uint      `gorm:"index;not null;uniqueIndex:idx_players_session_token"`
	Token     string    `gorm:"size:128;not null;uniqueIndex:idx_players_session_token"`
	Name      string    `gorm:"size:64;not null"`
	Score     int       `gorm:"not null;default:0"`
	JoinedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Presence rows are not unique per (session, token): concurrent
// heartbeats may insert duplicates, which the tracker collapses on the next
// touch.
type Presence struct {
	ID          uint      `gorm:"primaryKey"`
	SessionID   uint      `gorm:"index;not null;index:idx_presence_session_token"`
	PlayerToken string    `gorm:"size:128;not null;index:idx_presence_session_token"`
	JoinedAt    time.Time `gorm:"not null"`
	LastSeenAt  time.Time `gorm:"not null"`
}

// Card is a global guessable phrase shared across rooms.
type Card struct {
	ID             uint      `gorm:"primaryKey"`
	Text           string    `gorm:"size:64;not null"`
	Source         string    `gorm:"size:16;not null"`
	CreatedByToken string    `gorm:"size:128"`
	CreatedAt      time.Time `gorm:"not null;index"`
}
