package main

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/PaulBabatuyi/semx/internal/data"
)

// writeWait bounds a single push to one connection.
const writeWait = 5 * time.Second

// chatEvent is the frame pushed to live chat subscribers.
type chatEvent struct {
	Type    string                 `json:"type"`
	Message data.MessageWithSender `json:"message"`
}

// EventSender defines the minimal interface the hub needs from a connection:
// the ability to push a chat event to the connected client.
type EventSender interface {
	Send(ev chatEvent) error
}

// ConnectionHub manages live chat subscriptions.
// It maps delivery ids (conversation ids) to one or more active connections so
// a message sent over REST reaches every open client of that conversation.
type ConnectionHub struct {
	mu     sync.RWMutex
	conns  map[string]map[int64]EventSender
	nextID int64
	logger *slog.Logger
}

// NewConnectionHub returns an empty hub. A nil logger means slog.Default().
func NewConnectionHub(logger *slog.Logger) *ConnectionHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnectionHub{conns: make(map[string]map[int64]EventSender), logger: logger}
}

// Register subscribes s to a delivery and returns a connection id which
// should be used later to unregister it when the connection closes.
func (h *ConnectionHub) Register(deliveryID string, s EventSender) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[deliveryID]; !ok {
		h.conns[deliveryID] = make(map[int64]EventSender)
	}

	h.nextID++
	id := h.nextID
	h.conns[deliveryID][id] = s
	return id
}

// Unregister removes a previously-registered connection.
func (h *ConnectionHub) Unregister(deliveryID string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.conns[deliveryID]; ok {
		delete(conns, id)
		if len(conns) == 0 {
			delete(h.conns, deliveryID)
		}
	}
}

// Subscribers returns how many connections follow a delivery.
func (h *ConnectionHub) Subscribers(deliveryID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[deliveryID])
}

// SendToDelivery pushes ev to every connection subscribed to deliveryID.
// Connections whose write fails are unregistered; the first such error is
// returned. A delivery nobody follows is an error too.
func (h *ConnectionHub) SendToDelivery(deliveryID string, ev chatEvent) error {
	// copy under the lock; Register/Unregister may run while we send
	h.mu.RLock()
	targets := make(map[int64]EventSender, len(h.conns[deliveryID]))
	for id, s := range h.conns[deliveryID] {
		targets[id] = s
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("delivery %s has no subscribers", deliveryID)
	}

	var sendErr error
	for id, s := range targets {
		err := s.Send(ev)
		if err == nil {
			continue
		}
		if sendErr == nil {
			sendErr = err
		}
		h.Unregister(deliveryID, id)
	}
	return sendErr
}

// Publish implements service.Notifier. Delivery is best effort; clients
// that are offline read the history over REST.
func (h *ConnectionHub) Publish(deliveryID string, msg data.MessageWithSender) {
	if h.Subscribers(deliveryID) == 0 {
		return
	}
	if err := h.SendToDelivery(deliveryID, chatEvent{Type: "message", Message: msg}); err != nil {
		h.logger.Warn("chat push failed", "delivery_id", deliveryID, "error", err)
	}
}

// wsSender adapts a websocket connection to EventSender. gorilla/websocket
// allows one concurrent writer, so pushes and pings share mu.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsSender) Send(ev chatEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return w.conn.WriteJSON(ev)
}

func (w *wsSender) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}
