package server

import (
	"net/http"

	"lip-sprint/internal/game"
)

type Server struct {
	engine *game.Engine
	ws     *roomHub
}

func New(engine *game.Engine) *Server {
	return &Server{
		engine: engine,
		ws:     newRoomHub(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("POST /api/rooms/{code}/join", s.handleJoinRoom)
	mux.HandleFunc("POST /api/rooms/{code}/leave", s.handleLeaveRoom)
	mux.HandleFunc("POST /api/rooms/{code}/heartbeat", s.handleHeartbeat)
	mux.HandleFunc("POST /api/rooms/{code}/start", s.handleStartRound)
	mux.HandleFunc("POST /api/rooms/{code}/mark", s.handleMarkCard)
	mux.HandleFunc("POST /api/rooms/{code}/end", s.handleEndRound)
	mux.HandleFunc("POST /api/rooms/{code}/reset-scores", s.handleResetScores)
	mux.HandleFunc("GET /api/rooms/{code}/state", s.handleGetState)
	mux.HandleFunc("GET /api/cards", s.handleListCards)
	mux.HandleFunc("POST /api/cards", s.handleAddCards)
	mux.HandleFunc("POST /api/cards/seed", s.handleSeedCards)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)
	mux.HandleFunc("GET /ws/rooms/{code}", s.handleRoomWebsocket)
	return mux
}
