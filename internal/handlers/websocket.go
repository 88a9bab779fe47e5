package handlers

import (
	"net/http"

	"github.com/sadbytecom/couplex/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler handles realtime subscriptions
type WebSocketHandler struct {
	hub                *services.Hub
	userService        *services.UserService
	partnershipService *services.PartnershipService
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(
	hub *services.Hub,
	userService *services.UserService,
	partnershipService *services.PartnershipService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:                hub,
		userService:        userService,
		partnershipService: partnershipService,
	}
}

// HandleWebSocket handles GET /ws?token=. The channel is server-push only:
// the read loop exists to observe the close.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.userService.ValidateJWT(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade websocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	// Confirm the subscription, scoped to the current partnership if any.
	ctx := r.Context()
	ack := services.Message{Type: services.MsgSubscribed}
	connected := false
	if info, err := h.partnershipService.Resolve(ctx, userID); err == nil && info.Connected {
		connected = true
		ack.PartnershipID = info.PartnershipID
	}
	ack.Connected = &connected
	if err := h.hub.SendToUser(userID, ack); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send subscribe ack")
		return
	}

	log.Info().Str("user_id", userID).Msg("Realtime subscription established")

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("Websocket error")
			}
			return
		}
	}
}
