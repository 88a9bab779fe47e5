package services

import (
	"context"
	"fmt"

	"github.com/sadbytecom/couplex/internal/models"
	"github.com/sadbytecom/couplex/internal/repository"
)

type fakeUserStore struct {
	CreateFunc          func(ctx context.Context, user *models.User) error
	GetByIDFunc         func(ctx context.Context, id string) (*models.User, error)
	GetByCodeFunc       func(ctx context.Context, code string) (*models.User, error)
	CodeExistsFunc      func(ctx context.Context, code string) (bool, error)
	UpdateUsernameFunc  func(ctx context.Context, userID, username string) error
	UpdatePushTokenFunc func(ctx context.Context, userID string, pushToken *string) error
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, user)
	}
	return nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, id)
	}
	return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
}

func (f *fakeUserStore) GetByCode(ctx context.Context, code string) (*models.User, error) {
	if f.GetByCodeFunc != nil {
		return f.GetByCodeFunc(ctx, code)
	}
	return nil, fmt.Errorf("user not found: %w", repository.ErrNotFound)
}

func (f *fakeUserStore) CodeExists(ctx context.Context, code string) (bool, error) {
	if f.CodeExistsFunc != nil {
		return f.CodeExistsFunc(ctx, code)
	}
	return false, nil
}

func (f *fakeUserStore) UpdateUsername(ctx context.Context, userID, username string) error {
	if f.UpdateUsernameFunc != nil {
		return f.UpdateUsernameFunc(ctx, userID, username)
	}
	return nil
}

func (f *fakeUserStore) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	if f.UpdatePushTokenFunc != nil {
		return f.UpdatePushTokenFunc(ctx, userID, pushToken)
	}
	return nil
}

type fakePartnershipStore struct {
	CreateFunc             func(ctx context.Context, p *models.Partnership) error
	GetByUserIDFunc        func(ctx context.Context, userID string) (*models.Partnership, error)
	UserHasPartnershipFunc func(ctx context.Context, userID string) (bool, error)
}

func (f *fakePartnershipStore) Create(ctx context.Context, p *models.Partnership) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, p)
	}
	return nil
}

func (f *fakePartnershipStore) GetByUserID(ctx context.Context, userID string) (*models.Partnership, error) {
	if f.GetByUserIDFunc != nil {
		return f.GetByUserIDFunc(ctx, userID)
	}
	return nil, fmt.Errorf("partnership not found: %w", repository.ErrNotFound)
}

func (f *fakePartnershipStore) UserHasPartnership(ctx context.Context, userID string) (bool, error) {
	if f.UserHasPartnershipFunc != nil {
		return f.UserHasPartnershipFunc(ctx, userID)
	}
	return false, nil
}

type fakeEmotionStore struct {
	CreateFunc            func(ctx context.Context, e *models.EmotionEvent) error
	ListByPartnershipFunc func(ctx context.Context, partnershipID string, limit int) ([]*models.EmotionEvent, error)
}

func (f *fakeEmotionStore) Create(ctx context.Context, e *models.EmotionEvent) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, e)
	}
	return nil
}

func (f *fakeEmotionStore) ListByPartnership(ctx context.Context, partnershipID string, limit int) ([]*models.EmotionEvent, error) {
	if f.ListByPartnershipFunc != nil {
		return f.ListByPartnershipFunc(ctx, partnershipID, limit)
	}
	return nil, nil
}
