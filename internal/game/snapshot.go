package game

import (
	"time"

	"lip-sprint/internal/db"

	"gorm.io/gorm"
)

// StateView is the read model assembled for one requesting player. Every
// derived field (is_turn, is_guesser, is_online, round_expired) is computed
// here from persisted source-of-truth fields and never stored.
type StateView struct {
	Session         SessionView     `json:"session"`
	Players         []PlayerView    `json:"players"`
	Me              *MeView         `json:"me"`
	Cards           []CardView      `json:"cards"`
	ActiveCard      *ActiveCardView `json:"active_card"`
	RoundExpired    bool            `json:"round_expired"`
	PresenceStaleMS int64           `json:"presence_stale_ms"`
}

type SessionView struct {
	Code                 string  `json:"code"`
	GameKey              string  `json:"game_key"`
	Phase                string  `json:"phase"`
	HostToken            string  `json:"host_token"`
	TurnToken            *string `json:"turn_token"`
	RoundNumber          int     `json:"round_number"`
	RoundDurationSeconds int     `json:"round_duration_seconds"`
	RoundEndsAt          *int64  `json:"round_ends_at"`
}

type PlayerView struct {
	ID         uint   `json:"id"`
	Token      string `json:"token"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	JoinedAt   int64  `json:"joined_at"`
	IsTurn     bool   `json:"is_turn"`
	IsGuesser  bool   `json:"is_guesser"`
	IsOnline   bool   `json:"is_online"`
	LastSeenAt *int64 `json:"last_seen_at"`
}

type MeView struct {
	Token     string `json:"token"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	IsHost    bool   `json:"is_host"`
	IsTurn    bool   `json:"is_turn"`
	IsGuesser bool   `json:"is_guesser"`
	IsOnline  bool   `json:"is_online"`
}

type ActiveCardView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

func epochMS(t time.Time) int64 {
	return t.UnixMilli()
}

// GetState projects the full room snapshot for the given requester. A
// missing room yields (nil, nil) so callers can tell "gone" apart from a
// validation failure.
func (e *Engine) GetState(code, playerToken string) (*StateView, error) {
	var view *StateView
	err := e.db.Transaction(func(tx *gorm.DB) error {
		session, err := e.sessionByCode(tx, code)
		if err != nil {
			return err
		}
		if session == nil {
			return nil
		}

		players, err := e.playersBySession(tx, session.ID)
		if err != nil {
			return err
		}
		cards, err := allCards(tx)
		if err != nil {
			return err
		}
		var presenceRows []db.Presence
		if err := tx.Where("session_id = ?", session.ID).Find(&presenceRows).Error; err != nil {
			return err
		}

		now := e.now()
		guesser := guesserToken(players, session.TurnToken)

		// Duplicate presence rows may exist until the next heartbeat
		// collapses them; read the freshest timestamp per token.
		lastSeenByToken := make(map[string]time.Time)
		for _, row := range presenceRows {
			if current, ok := lastSeenByToken[row.PlayerToken]; !ok || row.LastSeenAt.After(current) {
				lastSeenByToken[row.PlayerToken] = row.LastSeenAt
			}
		}

		playerViews := make([]PlayerView, 0, len(players))
		for _, player := range players {
			pv := PlayerView{
				ID:        player.ID,
				Token:     player.Token,
				Name:      player.Name,
				Score:     player.Score,
				JoinedAt:  epochMS(player.JoinedAt),
				IsTurn:    player.Token == session.TurnToken,
				IsGuesser: player.Token == guesser,
			}
			if lastSeen, ok := lastSeenByToken[player.Token]; ok {
				ms := epochMS(lastSeen)
				pv.LastSeenAt = &ms
				pv.IsOnline = IsOnline(lastSeen, now)
			}
			playerViews = append(playerViews, pv)
		}

		var me *MeView
		if my := findPlayerByToken(players, playerToken); my != nil {
			me = &MeView{
				Token:     my.Token,
				Name:      my.Name,
				Score:     my.Score,
				IsHost:    my.Token == session.HostToken,
				IsTurn:    my.Token == session.TurnToken,
				IsGuesser: my.Token == guesser,
			}
			if lastSeen, ok := lastSeenByToken[my.Token]; ok {
				me.IsOnline = IsOnline(lastSeen, now)
			}
		}

		cardViews := make([]CardView, 0, len(cards))
		for _, card := range cards {
			cardViews = append(cardViews, CardView{ID: card.ID, Text: card.Text, Source: card.Source})
		}

		// The active card resolves only during a round; a deck entry whose
		// card was deleted degrades to no active card.
		var activeCard *ActiveCardView
		if session.Phase == phaseRound && len(session.DeckCardIDs) > 0 {
			cursor := 0
			if session.DeckCursor != nil {
				cursor = *session.DeckCursor
			}
			if cursor >= 0 && cursor < len(session.DeckCardIDs) {
				card, err := cardByID(tx, session.DeckCardIDs[cursor])
				if err != nil {
					return err
				}
				if card != nil {
					activeCard = &ActiveCardView{ID: card.ID, Text: card.Text}
				}
			}
		}

		sessionView := SessionView{
			Code:                 session.Code,
			GameKey:              session.GameKey,
			Phase:                session.Phase,
			HostToken:            session.HostToken,
			RoundNumber:          session.RoundNumber,
			RoundDurationSeconds: session.RoundDurationSeconds,
		}
		if session.TurnToken != "" {
			turn := session.TurnToken
			sessionView.TurnToken = &turn
		}
		roundExpired := false
		if session.RoundEndsAt != nil {
			ms := epochMS(*session.RoundEndsAt)
			sessionView.RoundEndsAt = &ms
			roundExpired = session.Phase == phaseRound && !now.Before(*session.RoundEndsAt)
		}

		view = &StateView{
			Session:         sessionView,
			Players:         playerViews,
			Me:              me,
			Cards:           cardViews,
			ActiveCard:      activeCard,
			RoundExpired:    roundExpired,
			PresenceStaleMS: PresenceStaleMS,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}
