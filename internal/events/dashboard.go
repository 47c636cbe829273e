package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

const subscriberBufferSize = 256

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type subscriber struct {
	conn *websocket.Conn
	send chan Event
}

// DashboardHub fans Events out to connected dashboard subscribers over
// websockets. Each subscriber has its own outbound buffer; a subscriber
// that can't keep up is disconnected rather than allowed to block
// delivery to everyone else.
type DashboardHub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	dropped     atomic.Uint64
}

// NewDashboardHub builds an empty hub.
func NewDashboardHub() *DashboardHub {
	return &DashboardHub{subscribers: make(map[*subscriber]struct{})}
}

// Consume implements Consumer, broadcasting e to every subscriber.
func (h *DashboardHub) Consume(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		select {
		case sub.send <- e:
		default:
			h.evictLocked(sub)
		}
	}
}

func (h *DashboardHub) evictLocked(sub *subscriber) {
	delete(h.subscribers, sub)
	close(sub.send)
	h.dropped.Add(1)
}

// SubscriberCount reports the number of currently connected subscribers.
func (h *DashboardHub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// DroppedSubscribers reports how many subscribers have been disconnected
// for falling behind.
func (h *DashboardHub) DroppedSubscribers() uint64 {
	return h.dropped.Load()
}

// ServeHTTP upgrades the request to a websocket and streams Events to it
// until the connection closes or the subscriber falls behind.
func (h *DashboardHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	sub := &subscriber{conn: conn, send: make(chan Event, subscriberBufferSize)}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(sub)
	h.readLoop(sub)
}

func (h *DashboardHub) writeLoop(sub *subscriber) {
	defer sub.conn.Close()
	for e := range sub.send {
		payload, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(sub)
			return
		}
	}
}

// readLoop only exists to detect client-initiated close; the dashboard
// protocol is server-push only.
func (h *DashboardHub) readLoop(sub *subscriber) {
	defer h.remove(sub)
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *DashboardHub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub]; ok {
		delete(h.subscribers, sub)
		close(sub.send)
	}
}
