package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sadbytecom/couplex/internal/middleware"
	"github.com/sadbytecom/couplex/internal/models"
	"github.com/sadbytecom/couplex/internal/services"

	"github.com/rs/zerolog/log"
)

// EmotionPusher delivers a push alert for a partner-authored event.
type EmotionPusher interface {
	PushEmotionAlert(ctx context.Context, deviceToken string, event *models.EmotionEvent) error
}

// EmotionHandler handles emotion-related HTTP requests
type EmotionHandler struct {
	emotionService *services.EmotionService
	userService    *services.UserService
	hub            *services.Hub
	pusher         EmotionPusher
}

// NewEmotionHandler creates a new emotion handler. pusher may be nil when
// push delivery is disabled.
func NewEmotionHandler(
	emotionService *services.EmotionService,
	userService *services.UserService,
	hub *services.Hub,
	pusher EmotionPusher,
) *EmotionHandler {
	return &EmotionHandler{
		emotionService: emotionService,
		userService:    userService,
		hub:            hub,
		pusher:         pusher,
	}
}

// ListEmotions handles GET /api/v1/emotions
func (h *EmotionHandler) ListEmotions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}

	events, err := h.emotionService.List(ctx, userID, limit)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list emotions")
		respondDomainError(w, err)
		return
	}
	if events == nil {
		events = []*models.EmotionEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"emotions": events})
}

// ShareEmotionRequest is the emotion submission body.
type ShareEmotionRequest struct {
	EmotionType string `json:"emotion_type"`
	Description string `json:"description"`
}

// ShareEmotion handles POST /api/v1/emotions
func (h *EmotionHandler) ShareEmotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ShareEmotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, partnership, err := h.emotionService.Share(ctx, userID, req.EmotionType, req.Description)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to share emotion")
		respondDomainError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("event_id", event.ID).
		Str("emotion_type", event.EmotionType).
		Msg("Emotion shared")

	h.hub.BroadcastEmotion(partnership, event)
	h.pushToOfflinePartner(ctx, partnership.PartnerOf(userID), event)

	respondJSON(w, http.StatusOK, event)
}

// pushToOfflinePartner sends a push alert when the partner has no live
// realtime connection but has a registered device.
func (h *EmotionHandler) pushToOfflinePartner(ctx context.Context, partnerID string, event *models.EmotionEvent) {
	if h.pusher == nil || partnerID == "" || h.hub.IsOnline(partnerID) {
		return
	}

	partner, err := h.userService.GetByID(ctx, partnerID)
	if err != nil {
		log.Error().Err(err).Str("partner_id", partnerID).Msg("Failed to load partner for push")
		return
	}
	if partner.PushToken == nil {
		return
	}

	if err := h.pusher.PushEmotionAlert(ctx, *partner.PushToken, event); err != nil {
		log.Error().Err(err).
			Str("partner_id", partnerID).
			Str("event_id", event.ID).
			Msg("Failed to push emotion alert")
	}
}
