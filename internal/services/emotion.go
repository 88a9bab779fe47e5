package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sadbytecom/couplex/internal/models"

	"github.com/google/uuid"
)

const (
	// FeedLimit bounds how many events a single feed fetch returns.
	FeedLimit = 20
)

// EmotionService handles emotion-related business logic
type EmotionService struct {
	emotions     EmotionStore
	partnerships PartnershipStore
	users        UserStore
}

// NewEmotionService creates a new emotion service
func NewEmotionService(emotions EmotionStore, partnerships PartnershipStore, users UserStore) *EmotionService {
	return &EmotionService{
		emotions:     emotions,
		partnerships: partnerships,
		users:        users,
	}
}

// Share validates and persists one emotion event for the author's
// partnership. Nothing is written when validation or the partnership lookup
// fails.
func (s *EmotionService) Share(ctx context.Context, userID, emotionType, description string) (*models.EmotionEvent, *models.Partnership, error) {
	if !models.ValidEmotionType(emotionType) {
		return nil, nil, ErrInvalidEmotion
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, nil, ErrEmptyDescription
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return nil, nil, ErrDescriptionTooLong
	}

	p, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrNotPaired
		}
		return nil, nil, fmt.Errorf("failed to get partnership: %w", err)
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get author: %w", err)
	}

	event := &models.EmotionEvent{
		ID:            uuid.New().String(),
		PartnershipID: p.ID,
		SharedByID:    userID,
		SharedByName:  author.Username,
		EmotionType:   emotionType,
		Description:   description,
		CreatedAt:     time.Now(),
	}

	if err := s.emotions.Create(ctx, event); err != nil {
		return nil, nil, fmt.Errorf("failed to create emotion: %w", err)
	}

	return event, p, nil
}

// List returns the newest events for the user's partnership, newest first.
// The limit is clamped to [1, FeedLimit]; zero means FeedLimit.
func (s *EmotionService) List(ctx context.Context, userID string, limit int) ([]*models.EmotionEvent, error) {
	p, err := s.partnerships.GetByUserID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotPaired
		}
		return nil, fmt.Errorf("failed to get partnership: %w", err)
	}

	if limit <= 0 || limit > FeedLimit {
		limit = FeedLimit
	}

	return s.emotions.ListByPartnership(ctx, p.ID, limit)
}
