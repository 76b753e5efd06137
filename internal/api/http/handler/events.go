package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FilmThanapol/caloriemate-go/internal/api/http/middleware"
	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Events upgrades /api/events requests to a websocket and streams the
// caller's change feed over it.
type Events struct {
	hub      *realtime.Hub
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

func NewEvents(hub *realtime.Hub, logger *logger.Logger) *Events {
	return &Events{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Sessions are token-authenticated, the origin adds nothing.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// HandleEvents handles GET /api/events requests.
func (h *Events) HandleEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		h.logger.Error("Events handler: websocket upgrade failed",
			"user_id", userID,
			"error", err.Error())
		return
	}

	session := h.hub.Register(userID)

	h.logger.Debug("Events handler: session opened",
		"user_id", userID)

	go h.readLoop(conn, session)
	h.writeLoop(conn, session)

	h.logger.Debug("Events handler: session closed",
		"user_id", userID)
}

// readLoop drains the connection so pings are answered and a client
// close tears the session down.
func (h *Events) readLoop(conn *websocket.Conn, session *realtime.Session) {
	defer session.Close()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Events) writeLoop(conn *websocket.Conn, session *realtime.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		session.Close()
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-session.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
