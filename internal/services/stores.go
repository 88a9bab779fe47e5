package services

import (
	"context"
	"errors"

	"github.com/sadbytecom/couplex/internal/models"
	"github.com/sadbytecom/couplex/internal/repository"
)

// isNotFound reports whether err represents a missing record.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// Domain errors surfaced to handlers and mapped to HTTP statuses there.
var (
	ErrEmptyUsername        = errors.New("username is required")
	ErrUsernameTooLong      = errors.New("username is too long")
	ErrInvalidCode          = errors.New("invalid code")
	ErrSelfCode             = errors.New("cannot connect with your own code")
	ErrAlreadyPaired        = errors.New("user is already in a partnership")
	ErrPartnerAlreadyPaired = errors.New("partner is already in a partnership")
	ErrNotPaired            = errors.New("user is not in a partnership")
	ErrInvalidEmotion       = errors.New("unknown emotion type")
	ErrEmptyDescription     = errors.New("description is required")
	ErrDescriptionTooLong   = errors.New("description is too long")
)

// UserStore is the persistence surface required by the user service.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByCode(ctx context.Context, code string) (*models.User, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// PartnershipStore is the persistence surface required by the partnership service.
type PartnershipStore interface {
	Create(ctx context.Context, p *models.Partnership) error
	GetByUserID(ctx context.Context, userID string) (*models.Partnership, error)
	UserHasPartnership(ctx context.Context, userID string) (bool, error)
}

// EmotionStore is the persistence surface required by the emotion service.
type EmotionStore interface {
	Create(ctx context.Context, e *models.EmotionEvent) error
	ListByPartnership(ctx context.Context, partnershipID string, limit int) ([]*models.EmotionEvent, error)
}
