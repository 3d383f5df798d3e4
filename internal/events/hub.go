package events

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/flowdeckhq/flowdeck/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans mutation events out to websocket subscribers, one subscriber
// set per project. Browser tabs watching a project use it to pick up
// reorders and moves made elsewhere without polling.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*subscriber]bool
}

type subscriber struct {
	send chan session.Event
}

// subscriberBuffer is how many events a slow client may fall behind
// before it is dropped.
const subscriberBuffer = 16

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscriber]bool)}
}

// Publish delivers an event to every subscriber of its project. Slow
// subscribers are disconnected rather than blocking the mutation path.
func (h *Hub) Publish(e session.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[e.ProjectID] {
		select {
		case sub.send <- e:
		default:
			close(sub.send)
			delete(h.subs[e.ProjectID], sub)
		}
	}
}

func (h *Hub) subscribe(projectID string) *subscriber {
	sub := &subscriber{send: make(chan session.Event, subscriberBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[*subscriber]bool)
	}
	h.subs[projectID][sub] = true
	return sub
}

func (h *Hub) unsubscribe(projectID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[projectID]; ok && set[sub] {
		delete(set, sub)
		close(sub.send)
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Hub) RegisterRoutes(r chi.Router) {
	r.Get("/api/projects/{projectID}/events", h.handleWebSocket)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("events: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sub := h.subscribe(projectID)
	defer h.unsubscribe(projectID, sub)

	// Reads are discarded; the close error is the only signal we need.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-sub.send:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("events: websocket write: %v", err)
				}
				return
			}
		case <-done:
			return
		}
	}
}
