package game

import (
	"crypto/rand"

	"lip-sprint/internal/db"

	"gorm.io/gorm"
)

// roomCodeAlphabet avoids glyphs that read ambiguously when typed from a
// friend's screen (no 0/O, 1/I).
const (
	roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	roomCodeLength   = 5
	roomCodeAttempts = 16
)

func newRoomCode() string {
	buf := make([]byte, roomCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAA"
	}
	for i := range buf {
		buf[i] = roomCodeAlphabet[int(buf[i])%len(roomCodeAlphabet)]
	}
	return string(buf)
}

// generateUniqueRoomCode retries a bounded number of times before giving up
// so a pathological collision streak surfaces as a retryable error instead
// of an endless loop.
func (e *Engine) generateUniqueRoomCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < roomCodeAttempts; attempt++ {
		code := newRoomCode()
		var count int64
		if err := tx.Model(&db.Session{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", exhausted("could not generate room code, please try again")
}
