package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/slicework/pizza-lb-go/internal/game"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The engine serves local game clients; origin enforcement is left to
	// the deployment in front of it.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// watchHub fans session events out to websocket watchers. Slow or dead
// connections are dropped on the first failed write.
type watchHub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newWatchHub() *watchHub {
	return &watchHub{conns: make(map[*websocket.Conn]bool)}
}

func (h *watchHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *watchHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// broadcast sends one JSON message carrying the event batch to every watcher.
func (h *watchHub) broadcast(events []game.Event) {
	if len(events) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(events); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

func (h *watchHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "session expired"),
			time.Now().Add(writeWait))
		conn.Close()
		delete(h.conns, conn)
	}
}

// handleWatchSession upgrades the connection and streams session events until
// the client disconnects or the session expires.
func (s *Server) handleWatchSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeInvalidParams,
			"Invalid session ID", map[string]interface{}{"session_id": chi.URLParam(r, "sessionID")})
		return
	}

	ms, ok := s.sessions.get(id)
	if !ok {
		s.writeError(w, r, http.StatusNotFound, ErrTypeSessionNotFound,
			"Session not found", map[string]interface{}{"session_id": id.String()})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket_upgrade_failed session_id=%s error=%q", id, err)
		return
	}

	ms.hub.add(conn)
	s.logger.Printf("watcher_connected session_id=%s remote_addr=%s", id, r.RemoteAddr)

	// Read pump: we never expect client messages, but reading is what
	// detects the close handshake.
	go func() {
		defer func() {
			ms.hub.remove(conn)
			s.logger.Printf("watcher_disconnected session_id=%s", id)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
