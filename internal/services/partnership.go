package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sadbytecom/couplex/internal/models"
	"github.com/sadbytecom/couplex/internal/repository"

	"github.com/google/uuid"
)

// PartnershipService handles partnership-related business logic
type PartnershipService struct {
	partnerships PartnershipStore
	users        UserStore
}

// NewPartnershipService creates a new partnership service
func NewPartnershipService(partnerships PartnershipStore, users UserStore) *PartnershipService {
	return &PartnershipService{
		partnerships: partnerships,
		users:        users,
	}
}

// PartnerInfo is the authoritative answer to "am I connected, and to whom".
type PartnerInfo struct {
	Connected     bool   `json:"connected"`
	PartnerID     string `json:"partner_id,omitempty"`
	PartnerName   string `json:"partner_name,omitempty"`
	PartnershipID string `json:"partnership_id,omitempty"`
}

// Resolve reports whether a partnership exists for the user and, if so, the
// partner identity and partnership id. Safe to call repeatedly.
func (s *PartnershipService) Resolve(ctx context.Context, userID string) (*PartnerInfo, error) {
	p, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return &PartnerInfo{Connected: false}, nil
		}
		return nil, fmt.Errorf("failed to resolve partnership: %w", err)
	}

	partnerID := p.PartnerOf(userID)
	partner, err := s.users.GetByID(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return &PartnerInfo{
		Connected:     true,
		PartnerID:     partner.ID,
		PartnerName:   partner.Username,
		PartnershipID: p.ID,
	}, nil
}

// Connect submits a partner code and creates the partnership. The caller
// must re-resolve afterwards for authoritative partner data.
func (s *PartnershipService) Connect(ctx context.Context, userID, partnerCode string) (*models.Partnership, error) {
	partnerCode = NormalizeCode(partnerCode)
	if len(partnerCode) != codeLength {
		return nil, ErrInvalidCode
	}

	partner, err := s.users.GetByCode(ctx, partnerCode)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("failed to look up partner code: %w", err)
	}

	if partner.ID == userID {
		return nil, ErrSelfCode
	}

	hasPartnership, err := s.partnerships.UserHasPartnership(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check partnership: %w", err)
	}
	if hasPartnership {
		return nil, ErrAlreadyPaired
	}

	partnerHas, err := s.partnerships.UserHasPartnership(ctx, partner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check partner partnership: %w", err)
	}
	if partnerHas {
		return nil, ErrPartnerAlreadyPaired
	}

	// Store member ids in lexicographic order so the pairing is symmetric.
	userAID, userBID := userID, partner.ID
	if userAID > userBID {
		userAID, userBID = userBID, userAID
	}

	p := &models.Partnership{
		ID:        uuid.New().String(),
		UserAID:   userAID,
		UserBID:   userBID,
		CreatedAt: time.Now(),
	}

	if err := s.partnerships.Create(ctx, p); err != nil {
		// A concurrent Connect can win between the checks above and this
		// insert; the store reports the lost race as a conflict.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyPaired
		}
		return nil, fmt.Errorf("failed to create partnership: %w", err)
	}

	return p, nil
}

// GetByUserID gets the partnership for a user. Returns ErrNotPaired when no
// partnership exists.
func (s *PartnershipService) GetByUserID(ctx context.Context, userID string) (*models.Partnership, error) {
	p, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotPaired
		}
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}
	return p, nil
}
