package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/pipeline"
	"github.com/ayusman/bebas/internal/skeleton"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	clientBuffer = 8
	writeWait    = time.Second
)

// Message is one websocket frame sent to result consumers.
type Message struct {
	Type string `json:"type"`
	// Result fields, set when Type is "result".
	Seq       uint64           `json:"seq,omitempty"`
	Timestamp int64            `json:"timestamp,omitempty"`
	Points    *skeleton.Points `json:"points,omitempty"`
	Label     string           `json:"label,omitempty"`
	HasLabel  bool             `json:"has_label,omitempty"`
	Hands     int              `json:"hands,omitempty"`
	// Payload carries other event types.
	Payload any `json:"payload,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub is a pipeline observer that pushes every result to websocket clients and keeps
// the latest result for the preview stream.
//
// Hub never blocks the pipeline: each client has a small buffer and messages for a
// client whose buffer is full are dropped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  pipeline.FrameResult
	has     bool
	closed  bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// OnResult is part of pipeline.ResultObserver.
func (h *Hub) OnResult(r pipeline.FrameResult) {
	h.mu.Lock()
	h.latest, h.has = r, true
	h.mu.Unlock()

	points := r.Points
	h.broadcast(Message{
		Type:      "result",
		Seq:       r.Seq,
		Timestamp: r.Timestamp.UnixMilli(),
		Points:    &points,
		Label:     r.Label,
		HasLabel:  r.HasLabel,
		Hands:     r.Hands,
	})
}

// OnPoints is part of pipeline.Observer. Points already went out with OnResult.
func (h *Hub) OnPoints(skeleton.Points) {}

// OnLabel pushes the delivered, possibly smoothed, label.
func (h *Hub) OnLabel(label string) {
	h.broadcast(Message{Type: "label", Label: label})
}

// OnCaptureError is part of pipeline.ErrorObserver.
func (h *Hub) OnCaptureError(err error) {
	h.broadcast(Message{Type: "error", Payload: err.Error()})
}

// Publish sends an event of the given type to every client.
func (h *Hub) Publish(typ string, payload any) {
	h.broadcast(Message{Type: typ, Payload: payload})
}

// Latest returns the most recent result.
func (h *Hub) Latest() (pipeline.FrameResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.has
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) broadcast(m Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}

	msg, err := json.Marshal(m)
	if err != nil {
		lgr.Logger.Error("encode websocket message", slog.String("type", m.Type), lgr.Err(err))
		return
	}

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		lgr.Logger.Warn("websocket upgrade", lgr.Err(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
