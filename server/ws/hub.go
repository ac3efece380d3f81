// Package ws implements the websocket subscriber hub: connected clients
// receive broadcast notices, system notices, and messages addressed to their
// own private queue. Delivery is fire-and-forget; slow subscribers lose
// frames rather than slowing the router down.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hrygo/chatrelay/relay"
	"github.com/hrygo/chatrelay/relay/metrics"
)

// Topic names mirror the STOMP-style destinations of the wire protocol.
const (
	TopicNotifications = "notifications"
	TopicSystem        = "system"
	TopicPrivate       = "private"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 32
)

// Envelope is one frame pushed to a subscriber.
type Envelope struct {
	Topic   string         `json:"topic"`
	Text    string         `json:"text,omitempty"`
	Message *relay.Message `json:"message,omitempty"`
}

type client struct {
	sessionID   string
	participant string
	conn        *websocket.Conn
	send        chan Envelope
}

// Hub tracks connected subscribers and implements relay.Notifier.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*client // keyed by session id
	collector *metrics.Collector
	upgrader  websocket.Upgrader
}

// NewHub creates an empty hub. collector may be nil.
func NewHub(collector *metrics.Collector) *Hub {
	return &Hub{
		clients:   make(map[string]*client),
		collector: collector,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Sender authentication is out of scope; accept any origin.
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
	}
}

// Subscribe upgrades the request to a websocket session for the given
// participant id and serves it until the connection drops.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, participant string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		sessionID:   uuid.NewString(),
		participant: participant,
		conn:        conn,
		send:        make(chan Envelope, sendBufferSize),
	}

	h.mu.Lock()
	h.clients[c.sessionID] = c
	h.mu.Unlock()

	slog.Info("subscriber_connected", "session", c.sessionID, "participant", participant)

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// SubscriberCount returns the number of connected sessions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers a notice to every subscriber.
func (h *Hub) Broadcast(_ context.Context, text string) {
	h.fanOut(Envelope{Topic: TopicNotifications, Text: text}, "")
}

// SendTo delivers a message to the subscribers of one participant id.
func (h *Hub) SendTo(_ context.Context, recipient string, msg *relay.Message) {
	h.fanOut(Envelope{Topic: TopicPrivate, Message: msg}, recipient)
}

// SystemNotice delivers a notice to the system topic of every subscriber.
func (h *Hub) SystemNotice(_ context.Context, text string) {
	h.fanOut(Envelope{Topic: TopicSystem, Text: text}, "")
}

// fanOut pushes an envelope to matching subscribers without blocking. A full
// send buffer means the subscriber is too slow; the frame is dropped per the
// notifier contract.
func (h *Hub) fanOut(env Envelope, participant string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		if participant != "" && c.participant != participant {
			continue
		}
		select {
		case c.send <- env:
		default:
			slog.Warn("subscriber_frame_dropped",
				"session", c.sessionID,
				"participant", c.participant,
				"topic", env.Topic)
			if h.collector != nil {
				h.collector.CountDroppedFrame(env.Topic)
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.sessionID]; ok {
		delete(h.clients, c.sessionID)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// readPump discards inbound frames (the data path is HTTP) and tears the
// session down when the peer goes away.
func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("subscriber_read_error", "session", c.sessionID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
		_ = c.conn.Close()
	}
}
