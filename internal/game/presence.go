package game

import (
	"time"

	"lip-sprint/internal/db"

	"gorm.io/gorm"
)

// touchPresence upserts the caller's last-seen timestamp. When a race has
// left duplicate rows for the same (session, token) pair, the oldest row is
// kept as canonical and the rest are deleted, so concurrent writers
// self-heal without locking.
func (e *Engine) touchPresence(tx *gorm.DB, sessionID uint, token string) error {
	now := e.now()

	var rows []db.Presence
	err := tx.Where("session_id = ? AND player_token = ?", sessionID, token).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		return tx.Create(&db.Presence{
			SessionID:   sessionID,
			PlayerToken: token,
			JoinedAt:    now,
			LastSeenAt:  now,
		}).Error
	}

	current := rows[0]
	if err := tx.Model(&db.Presence{}).Where("id = ?", current.ID).
		Update("last_seen_at", now).Error; err != nil {
		return err
	}
	for _, duplicate := range rows[1:] {
		if err := tx.Delete(&db.Presence{}, duplicate.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

func deletePresence(tx *gorm.DB, sessionID uint, token string) error {
	return tx.Where("session_id = ? AND player_token = ?", sessionID, token).
		Delete(&db.Presence{}).Error
}

func deleteSessionPresence(tx *gorm.DB, sessionID uint) error {
	return tx.Where("session_id = ?", sessionID).Delete(&db.Presence{}).Error
}

// IsOnline judges presence freshness. Advisory only: it never gates game
// actions.
func IsOnline(lastSeenAt, now time.Time) bool {
	return now.Sub(lastSeenAt) <= PresenceStaleMS*time.Millisecond
}
