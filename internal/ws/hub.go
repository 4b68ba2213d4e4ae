package ws

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-stream-service/internal/observability"
)

// ChannelName returns the stream channel name for a chat.
func ChannelName(chatID int) string {
	return fmt.Sprintf("chat.%d", chatID)
}

// Hub maintains the active subscriptions of all chat channels.
type Hub struct {
	rooms map[int]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[*websocket.Conn]ConnInfo)}
}

// Subscription is the per-connection handle for one chat channel. Release
// detaches the connection from the hub; it is safe to call more than once.
type Subscription struct {
	hub    *Hub
	chatID int
	conn   *websocket.Conn
	once   sync.Once
}

// Release removes the subscription from the hub.
func (s *Subscription) Release() {
	s.once.Do(func() {
		s.hub.remove(s.chatID, s.conn)
	})
}

// Subscribe registers a websocket connection on a chat channel and returns its
// subscription handle.
func (h *Hub) Subscribe(chatID int, conn *websocket.Conn, info ConnInfo) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[chatID][conn] = info
	return &Subscription{hub: h, chatID: chatID, conn: conn}
}

func (h *Hub) remove(chatID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[chatID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, chatID)
		}
	}
}

// Subscribers reports how many connections are attached to a chat channel.
func (h *Hub) Subscribers(chatID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// Broadcast writes an already-encoded event envelope to every subscriber of
// the chat channel. Delivery is at-most-once: a failed write drops the
// connection rather than retrying.
func (h *Hub) Broadcast(chatID int, payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[chatID]))
	for conn := range h.rooms[chatID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.publishWSError(chatID, conn, err)
			h.remove(chatID, conn)
		}
	}
}

func (h *Hub) publishWSError(chatID int, conn *websocket.Conn, err error) {
	h.mu.RLock()
	info, ok := h.rooms[chatID][conn]
	h.mu.RUnlock()
	if !ok {
		return
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.chats", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   wsEventPayload(ChannelName(chatID), chatID, "ws_error", info, time.Since(info.ConnectedAt), err.Error()),
	}, headers)
	observability.IncWSEvent("ws_error")
}

func wsEventPayload(channel string, chatID int, event string, info ConnInfo, duration time.Duration, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"channel":     channel,
			"chat_id":     chatID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration.Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
