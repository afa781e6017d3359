package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	EventCallStarted = "call_started"
	EventCallTurn    = "call_turn"
	EventCallEnded   = "call_ended"
)

// Event is one dashboard notification. Caller numbers are masked
// before publication.
type Event struct {
	Type      string    `json:"type"`
	CallSID   string    `json:"call_sid"`
	From      string    `json:"from,omitempty"`
	Text      string    `json:"text,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventHub fans call events out to connected dashboard sockets. Each
// client gets a buffered queue drained by its own writer goroutine, so
// a slow or broken client is dropped without blocking the call path.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event
}

const clientQueueSize = 16

func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*websocket.Conn]chan Event)}
}

func (h *EventHub) add(conn *websocket.Conn) {
	ch := make(chan Event, clientQueueSize)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	go h.writeLoop(conn, ch)
}

// remove is idempotent; the queue is closed at most once.
func (h *EventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
	}
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (h *EventHub) writeLoop(conn *websocket.Conn, ch chan Event) {
	for evt := range ch {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(evt); err != nil {
			h.remove(conn)
			_ = conn.Close()
			for range ch {
			}
			return
		}
	}
}

// Publish queues the event for every connected client. A client whose
// queue is full is dropped instead of waited on.
func (h *EventHub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- evt:
		default:
			delete(h.clients, conn)
			close(ch)
			_ = conn.Close()
		}
	}
}

// ClientCount reports how many dashboard sockets are connected.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.add(conn)
	defer func() {
		s.hub.remove(conn)
		_ = conn.Close()
	}()

	// Inbound frames are ignored; the loop exists to notice disconnects.
	conn.SetReadLimit(1 << 10)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
