package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// wsClient pairs a connection with the token it identified with and a
// write lock. Gorilla allows at most one concurrent writer per
// connection, and several request handlers can broadcast at once.
type wsClient struct {
	conn  *websocket.Conn
	token string
	mu    sync.Mutex
}

func (c *wsClient) write(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// roomHub tracks the websocket clients watching each room so broadcasts
// can project a snapshot per viewer.
type roomHub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]*wsClient
}

func newRoomHub() *roomHub {
	return &roomHub{
		rooms: make(map[string]map[*websocket.Conn]*wsClient),
	}
}

func (h *roomHub) Add(code string, conn *websocket.Conn, token string) *wsClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[code]
	if group == nil {
		group = make(map[*websocket.Conn]*wsClient)
		h.rooms[code] = group
	}
	client := &wsClient{conn: conn, token: token}
	group[conn] = client
	return client
}

func (h *roomHub) Remove(code string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[code]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.rooms, code)
	}
}

// Broadcast pushes a freshly projected snapshot to every watcher of a room.
// The projection runs per client because the snapshot depends on the
// viewer's token.
func (h *roomHub) Broadcast(code string, project func(token string) (any, bool)) {
	h.mu.Lock()
	group := h.rooms[code]
	clients := make([]*wsClient, 0, len(group))
	for _, client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, client := range clients {
		payload, ok := project(client.token)
		if !ok {
			continue
		}
		if err := client.write(payload); err != nil {
			h.Remove(code, client.conn)
		}
	}
}

func (s *Server) handleRoomWebsocket(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	token := r.URL.Query().Get("token")

	state, err := s.engine.GetState(code, token)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if state == nil {
		http.NotFound(w, r)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected code=%s remote=%s", code, r.RemoteAddr)
	client := s.ws.Add(code, conn, token)
	if err := client.write(state); err != nil {
		s.ws.Remove(code, conn)
		return
	}
	go s.readWS(code, conn)
}

// readWS drains client frames until the connection drops. Inbound messages
// carry no meaning; mutations go through the HTTP API.
func (s *Server) readWS(code string, conn *websocket.Conn) {
	defer s.ws.Remove(code, conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected code=%s error=%v", code, err)
			return
		}
	}
}

// broadcastRoomUpdate re-projects and pushes the room snapshot after a
// mutation. A nil snapshot (room closed) is pushed as a JSON null so
// watchers learn the room is gone.
func (s *Server) broadcastRoomUpdate(code string) {
	if s.ws == nil {
		return
	}
	s.ws.Broadcast(code, func(token string) (any, bool) {
		state, err := s.engine.GetState(code, token)
		if err != nil {
			return nil, false
		}
		if state == nil {
			return nil, true
		}
		return state, true
	})
}
