package messaging

import (
	"net/http"
	"sync"

	"github.com/caseflowhq/caseflow/pkg/logging"
	"github.com/gorilla/websocket"
)

// Hub broadcasts newly posted messages to every staff member subscribed to a
// thread over websocket.
type Hub struct {
	mu       sync.RWMutex
	subs     map[string]map[*websocket.Conn]struct{} // threadID -> conns
	upgrader websocket.Upgrader
	logger   *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		subs: make(map[string]map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks are enforced by the CORS middleware in front of
			// the upgrade request.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Subscribe upgrades the request and registers the connection on a thread.
// The connection is held open until the client disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("threadId")
	if threadID == "" {
		http.Error(w, "missing threadId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	h.add(threadID, conn)
	h.logger.Debug("websocket subscribed", "thread_id", threadID)

	// Drain the connection; we never expect inbound frames, but reading is
	// what detects the close.
	go func() {
		defer func() {
			h.remove(threadID, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast pushes a message to every subscriber of its thread. Dead
// connections are dropped on write failure.
func (h *Hub) Broadcast(msg *Message) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.subs[msg.ThreadID]))
	for conn := range h.subs[msg.ThreadID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			h.remove(msg.ThreadID, conn)
			_ = conn.Close()
		}
	}
}

// SubscriberCount reports how many connections watch a thread.
func (h *Hub) SubscriberCount(threadID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[threadID])
}

func (h *Hub) add(threadID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[threadID] == nil {
		h.subs[threadID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[threadID][conn] = struct{}{}
}

func (h *Hub) remove(threadID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[threadID], conn)
	if len(h.subs[threadID]) == 0 {
		delete(h.subs, threadID)
	}
}
