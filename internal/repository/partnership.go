package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadbytecom/couplex/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PartnershipRepository handles database operations for partnerships
type PartnershipRepository struct {
	db *pgxpool.Pool
}

// NewPartnershipRepository creates a new partnership repository
func NewPartnershipRepository(db *pgxpool.Pool) *PartnershipRepository {
	return &PartnershipRepository{db: db}
}

// Create creates a partnership together with its membership rows in one
// transaction. The primary key on partnership_members.user_id holds "at most
// one partnership per user" even against concurrent creates; a violation
// surfaces as ErrConflict.
func (r *PartnershipRepository) Create(ctx context.Context, p *models.Partnership) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO partnerships (id, user_a_id, user_b_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, p.ID, p.UserAID, p.UserBID, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create partnership: %w", wrapConflict(err))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO partnership_members (user_id, partnership_id)
		VALUES ($1, $3), ($2, $3)
	`, p.UserAID, p.UserBID, p.ID)
	if err != nil {
		return fmt.Errorf("failed to create partnership members: %w", wrapConflict(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit partnership: %w", err)
	}
	return nil
}

// wrapConflict tags unique violations so callers can map them to a domain
// error instead of an internal failure.
func wrapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

// GetByUserID retrieves the partnership a user belongs to
func (r *PartnershipRepository) GetByUserID(ctx context.Context, userID string) (*models.Partnership, error) {
	query := `
		SELECT p.id, p.user_a_id, p.user_b_id, p.created_at
		FROM partnership_members m
		JOIN partnerships p ON p.id = m.partnership_id
		WHERE m.user_id = $1
	`
	var p models.Partnership
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID, &p.UserAID, &p.UserBID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("partnership not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get partnership by user id: %w", err)
	}
	return &p, nil
}

// UserHasPartnership checks if a user is already in a partnership
func (r *PartnershipRepository) UserHasPartnership(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM partnership_members WHERE user_id = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check if user has partnership: %w", err)
	}
	return exists, nil
}
