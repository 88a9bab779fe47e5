package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sadbytecom/couplex/internal/models"
	"github.com/sadbytecom/couplex/internal/repository"
)

func TestPartnershipService_Resolve_NotConnected(t *testing.T) {
	svc := NewPartnershipService(&fakePartnershipStore{}, &fakeUserStore{})

	info, err := svc.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Connected {
		t.Fatal("expected connected=false")
	}
	if info.PartnerID != "" || info.PartnershipID != "" {
		t.Fatalf("expected empty partner info, got %+v", info)
	}
}

func TestPartnershipService_Resolve_Connected(t *testing.T) {
	p := &models.Partnership{ID: "p1", UserAID: "u1", UserBID: "u2"}
	partner := &models.User{ID: "u2", Username: "bob"}

	partnerships := &fakePartnershipStore{
		GetByUserIDFunc: func(ctx context.Context, userID string) (*models.Partnership, error) {
			return p, nil
		},
	}
	users := &fakeUserStore{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			if id != "u2" {
				t.Fatalf("expected partner lookup for u2, got %q", id)
			}
			return partner, nil
		},
	}

	svc := NewPartnershipService(partnerships, users)
	info, err := svc.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Connected {
		t.Fatal("expected connected=true")
	}
	if info.PartnerID != "u2" || info.PartnerName != "bob" || info.PartnershipID != "p1" {
		t.Fatalf("unexpected partner info: %+v", info)
	}
}

func TestPartnershipService_Connect_SelfCode(t *testing.T) {
	users := &fakeUserStore{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.User, error) {
			return &models.User{ID: "u1", UniqueCode: code}, nil
		},
	}

	svc := NewPartnershipService(&fakePartnershipStore{}, users)
	if _, err := svc.Connect(context.Background(), "u1", "AB12CD34"); !errors.Is(err, ErrSelfCode) {
		t.Fatalf("expected ErrSelfCode, got %v", err)
	}
}

func TestPartnershipService_Connect_InvalidCode(t *testing.T) {
	svc := NewPartnershipService(&fakePartnershipStore{}, &fakeUserStore{})

	if _, err := svc.Connect(context.Background(), "u1", "NOPE"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for short code, got %v", err)
	}
	if _, err := svc.Connect(context.Background(), "u1", "ZZ99YY88"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode for unknown code, got %v", err)
	}
}

func TestPartnershipService_Connect_AlreadyPaired(t *testing.T) {
	users := &fakeUserStore{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.User, error) {
			return &models.User{ID: "u2", UniqueCode: code}, nil
		},
	}

	t.Run("caller already paired", func(t *testing.T) {
		partnerships := &fakePartnershipStore{
			UserHasPartnershipFunc: func(ctx context.Context, userID string) (bool, error) {
				return userID == "u1", nil
			},
		}
		svc := NewPartnershipService(partnerships, users)
		if _, err := svc.Connect(context.Background(), "u1", "AB12CD34"); !errors.Is(err, ErrAlreadyPaired) {
			t.Fatalf("expected ErrAlreadyPaired, got %v", err)
		}
	})

	t.Run("partner already paired", func(t *testing.T) {
		partnerships := &fakePartnershipStore{
			UserHasPartnershipFunc: func(ctx context.Context, userID string) (bool, error) {
				return userID == "u2", nil
			},
		}
		svc := NewPartnershipService(partnerships, users)
		if _, err := svc.Connect(context.Background(), "u1", "AB12CD34"); !errors.Is(err, ErrPartnerAlreadyPaired) {
			t.Fatalf("expected ErrPartnerAlreadyPaired, got %v", err)
		}
	})
}

func TestPartnershipService_Connect_OrdersMemberIDs(t *testing.T) {
	var created *models.Partnership
	users := &fakeUserStore{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.User, error) {
			return &models.User{ID: "aaa", UniqueCode: code}, nil
		},
	}
	partnerships := &fakePartnershipStore{
		CreateFunc: func(ctx context.Context, p *models.Partnership) error {
			created = p
			return nil
		},
	}

	svc := NewPartnershipService(partnerships, users)
	p, err := svc.Connect(context.Background(), "zzz", "AB12CD34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected partnership to be persisted")
	}
	if p.UserAID != "aaa" || p.UserBID != "zzz" {
		t.Fatalf("expected lexicographic member order, got %+v", p)
	}
	if p.ID == "" {
		t.Fatal("expected generated partnership id")
	}
}

func TestPartnershipService_Connect_LostRaceIsConflict(t *testing.T) {
	users := &fakeUserStore{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.User, error) {
			return &models.User{ID: "u2", UniqueCode: code}, nil
		},
	}
	// Both membership checks pass, but a concurrent connect claims a member
	// first and the insert loses to the uniqueness constraint.
	partnerships := &fakePartnershipStore{
		CreateFunc: func(ctx context.Context, p *models.Partnership) error {
			return fmt.Errorf("failed to create partnership members: %w", repository.ErrConflict)
		},
	}

	svc := NewPartnershipService(partnerships, users)
	if _, err := svc.Connect(context.Background(), "u1", "AB12CD34"); !errors.Is(err, ErrAlreadyPaired) {
		t.Fatalf("expected ErrAlreadyPaired on lost race, got %v", err)
	}
}

func TestPartnershipService_Connect_NormalizesCode(t *testing.T) {
	var lookedUp string
	users := &fakeUserStore{
		GetByCodeFunc: func(ctx context.Context, code string) (*models.User, error) {
			lookedUp = code
			return &models.User{ID: "u2", UniqueCode: code}, nil
		},
	}

	svc := NewPartnershipService(&fakePartnershipStore{}, users)
	if _, err := svc.Connect(context.Background(), "u1", " ab12cd34 "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lookedUp != "AB12CD34" {
		t.Fatalf("expected normalized code lookup, got %q", lookedUp)
	}
}
