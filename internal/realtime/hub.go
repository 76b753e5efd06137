// Package realtime fans change events out to a user's connected
// sessions. Each websocket connection registers one session; services
// broadcast through the hub after every confirmed write.
package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/FilmThanapol/caloriemate-go/internal/logger"
	"github.com/FilmThanapol/caloriemate-go/internal/model"
)

var _ model.Broadcaster = (*Hub)(nil)

// Hub routes events to the sessions of the user they belong to. A user
// with no open sessions costs nothing; events for them are dropped.
type Hub struct {
	logger  *logger.Logger
	bufSize int

	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*Session]struct{}
}

// Session is one subscriber's view of the hub. Events arrive on a
// buffered channel; a session that stops draining loses events rather
// than blocking the writer.
type Session struct {
	hub    *Hub
	userID uuid.UUID
	ch     chan model.Event
	once   sync.Once
}

func NewHub(sendBuffer int, logger *logger.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 1
	}
	return &Hub{
		logger:   logger,
		bufSize:  sendBuffer,
		sessions: make(map[uuid.UUID]map[*Session]struct{}),
	}
}

// Register opens a session for the user. The caller must Close it.
func (h *Hub) Register(userID uuid.UUID) *Session {
	s := &Session{
		hub:    h,
		userID: userID,
		ch:     make(chan model.Event, h.bufSize),
	}

	h.mu.Lock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*Session]struct{})
	}
	h.sessions[userID][s] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("Realtime hub: session registered",
		"user_id", userID)

	return s
}

// Broadcast delivers the event to every open session of the user. A
// session with a full buffer skips the event.
func (h *Hub) Broadcast(userID uuid.UUID, event model.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.sessions[userID] {
		select {
		case s.ch <- event:
		default:
			h.logger.Warn("Realtime hub: session buffer full, dropping event",
				"user_id", userID,
				"op", event.Op)
		}
	}
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.sessions[s.userID]
	if set == nil {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.sessions, s.userID)
	}
}

// SessionCount reports open sessions for the user.
func (h *Hub) SessionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Events is the stream of changes for this session. The channel closes
// when the session is closed.
func (s *Session) Events() <-chan model.Event {
	return s.ch
}

// Close unregisters the session and closes its channel. Safe to call
// more than once.
func (s *Session) Close() {
	s.once.Do(func() {
		s.hub.unregister(s)
		close(s.ch)
	})
}
