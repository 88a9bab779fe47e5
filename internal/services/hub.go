package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sadbytecom/couplex/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Message types pushed to subscribers.
const (
	MsgSubscribed         = "subscribed"
	MsgEmotionCreated     = "emotion_created"
	MsgPartnershipCreated = "partnership_created"
)

// Message is the wire format of the realtime channel.
type Message struct {
	Type          string               `json:"type"`
	PartnershipID string               `json:"partnership_id,omitempty"`
	Connected     *bool                `json:"connected,omitempty"`
	Event         *models.EmotionEvent `json:"event,omitempty"`
	Message       string               `json:"message,omitempty"`
}

// Conn is the write surface the hub needs from a websocket connection.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub manages one realtime connection per user and fans emotion inserts out
// to both members of a partnership in emission order.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]Conn
}

// NewHub creates a new realtime hub
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]Conn),
	}
}

// Register registers a connection for a user, closing any previous one so a
// user never holds two live subscriptions.
func (h *Hub) Register(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[userID]; ok {
		existing.Close()
	}
	h.connections[userID] = conn

	log.Info().Str("user_id", userID).Msg("Realtime connection registered")
}

// Unregister removes the connection for a user. Removing a connection that
// has already been replaced is a no-op.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	current, ok := h.connections[userID]
	if !ok || current != conn {
		return
	}
	current.Close()
	delete(h.connections, userID)
	log.Info().Str("user_id", userID).Msg("Realtime connection unregistered")
}

// IsOnline checks if a user has a live connection
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.connections[userID]
	return ok
}

// SendToUser sends a message to a specific user
func (h *Hub) SendToUser(userID string, message Message) error {
	h.mu.RLock()
	conn, ok := h.connections[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(userID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// BroadcastEmotion delivers an insert event to both members of the
// partnership in the order events are emitted.
func (h *Hub) BroadcastEmotion(p *models.Partnership, event *models.EmotionEvent) {
	msg := Message{
		Type:          MsgEmotionCreated,
		PartnershipID: p.ID,
		Event:         event,
	}

	for _, userID := range []string{p.UserAID, p.UserBID} {
		if !h.IsOnline(userID) {
			continue
		}
		if err := h.SendToUser(userID, msg); err != nil {
			log.Error().Err(err).
				Str("user_id", userID).
				Str("event_id", event.ID).
				Msg("Failed to deliver emotion event")
		}
	}
}

// NotifyPartnershipCreated tells a member that their partnership now exists.
func (h *Hub) NotifyPartnershipCreated(userID, partnershipID string) {
	if !h.IsOnline(userID) {
		return
	}
	msg := Message{
		Type:          MsgPartnershipCreated,
		PartnershipID: partnershipID,
	}
	if err := h.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).
			Str("user_id", userID).
			Msg("Failed to notify partnership creation")
	}
}
