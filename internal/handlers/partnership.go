package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sadbytecom/couplex/internal/middleware"
	"github.com/sadbytecom/couplex/internal/services"

	"github.com/rs/zerolog/log"
)

// PartnershipHandler handles partnership-related HTTP requests
type PartnershipHandler struct {
	partnershipService *services.PartnershipService
	hub                *services.Hub
}

// NewPartnershipHandler creates a new partnership handler
func NewPartnershipHandler(partnershipService *services.PartnershipService, hub *services.Hub) *PartnershipHandler {
	return &PartnershipHandler{
		partnershipService: partnershipService,
		hub:                hub,
	}
}

// GetPartnerInfo handles GET /api/v1/partner
func (h *PartnershipHandler) GetPartnerInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	info, err := h.partnershipService.Resolve(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to resolve partnership")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// CreatePartnershipRequest represents the request body for connecting partners
type CreatePartnershipRequest struct {
	PartnerCode string `json:"partner_code"`
}

// CreatePartnership handles POST /api/v1/partnerships
func (h *PartnershipHandler) CreatePartnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreatePartnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.PartnerCode == "" {
		respondError(w, "partner_code is required", http.StatusBadRequest)
		return
	}

	p, err := h.partnershipService.Connect(ctx, userID, req.PartnerCode)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Msg("Failed to create partnership")
		respondDomainError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("partnership_id", p.ID).
		Msg("Partnership created")

	// Both members learn about the new partnership over their live channels
	// so an open, unpaired session can resolve and resubscribe.
	h.hub.NotifyPartnershipCreated(p.UserAID, p.ID)
	h.hub.NotifyPartnershipCreated(p.UserBID, p.ID)

	respondJSON(w, http.StatusOK, p)
}
