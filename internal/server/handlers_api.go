package server

import (
	"log"
	"net/http"
	"strconv"
	"time"
)

type createRoomRequest struct {
	Name        string `json:"name"`
	PlayerToken string `json:"player_token"`
}

type joinRoomRequest struct {
	Name        string `json:"name"`
	PlayerToken string `json:"player_token"`
}

type tokenRequest struct {
	PlayerToken string `json:"player_token"`
}

type startRoundRequest struct {
	PlayerToken     string `json:"player_token"`
	DurationSeconds *int   `json:"duration_seconds"`
}

type markCardRequest struct {
	PlayerToken string `json:"player_token"`
	Result      string `json:"result"`
}

type addCardsRequest struct {
	PlayerToken string `json:"player_token"`
	Text        string `json:"text"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "lip-sprint server is running",
		"now":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name and player_token are required")
		return
	}
	code, err := s.engine.CreateRoom(req.Name, req.PlayerToken)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	log.Printf("room created code=%s", code)
	writeJSON(w, http.StatusCreated, map[string]string{
		"code": code,
	})
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name and player_token are required")
		return
	}
	code, err := s.engine.JoinRoom(r.PathValue("code"), req.Name, req.PlayerToken)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	log.Printf("player joined code=%s player_name=%s", code, req.Name)
	writeJSON(w, http.StatusOK, map[string]string{
		"code": code,
	})
	s.broadcastRoomUpdate(code)
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token is required")
		return
	}
	code := r.PathValue("code")
	result, err := s.engine.LeaveRoom(code, req.PlayerToken)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if result.Left {
		log.Printf("player left code=%s room_closed=%t", code, result.RoomClosed)
	}
	writeJSON(w, http.StatusOK, result)
	s.broadcastRoomUpdate(code)
}

func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token is required")
		return
	}
	if err := s.engine.Heartbeat(r.PathValue("code"), req.PlayerToken); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStartRound(w http.ResponseWriter, r *http.Request) {
	var req startRoundRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token is required")
		return
	}
	code := r.PathValue("code")
	endsAt, err := s.engine.StartRound(code, req.PlayerToken, req.DurationSeconds)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	log.Printf("round started code=%s ends_at=%s", code, endsAt.Format(time.RFC3339))
	writeJSON(w, http.StatusOK, map[string]int64{
		"round_ends_at": endsAt.UnixMilli(),
	})
	s.broadcastRoomUpdate(code)
}

func (s *Server) handleMarkCard(w http.ResponseWriter, r *http.Request) {
	var req markCardRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token and result are required")
		return
	}
	code := r.PathValue("code")
	ended, err := s.engine.MarkCardResult(code, req.PlayerToken, req.Result)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ended": ended})
	s.broadcastRoomUpdate(code)
}

func (s *Server) handleEndRound(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token is required")
		return
	}
	code := r.PathValue("code")
	ended, err := s.engine.EndRound(code, req.PlayerToken)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if ended {
		log.Printf("round ended code=%s", code)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ended": ended})
	s.broadcastRoomUpdate(code)
}

func (s *Server) handleResetScores(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token is required")
		return
	}
	code := r.PathValue("code")
	if err := s.engine.ResetScores(code, req.PlayerToken); err != nil {
		writeEngineError(w, err)
		return
	}
	log.Printf("scores reset code=%s", code)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	s.broadcastRoomUpdate(code)
}

// handleGetState returns the snapshot for the requesting token, or a JSON
// null when the room no longer exists so clients can tell deletion apart
// from a failed request.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.engine.GetState(r.PathValue("code"), r.URL.Query().Get("token"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if state == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.engine.ListCards()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
}

func (s *Server) handleAddCards(w http.ResponseWriter, r *http.Request) {
	var req addCardsRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token and text are required")
		return
	}
	count, err := s.engine.AddCards(req.PlayerToken, req.Text)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	log.Printf("cards added count=%d", count)
	writeJSON(w, http.StatusCreated, map[string]int{"created_count": count})
}

func (s *Server) handleSeedCards(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.EnsureCardsSeeded(); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "card id must be numeric")
		return
	}
	var req tokenRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "player_token is required")
		return
	}
	deleted, err := s.engine.DeleteCard(req.PlayerToken, uint(id))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
