package repository

import (
	"context"
	"fmt"

	"github.com/sadbytecom/couplex/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EmotionRepository handles database operations for emotion events
type EmotionRepository struct {
	db *pgxpool.Pool
}

// NewEmotionRepository creates a new emotion repository
func NewEmotionRepository(db *pgxpool.Pool) *EmotionRepository {
	return &EmotionRepository{db: db}
}

// Create creates a new emotion event
func (r *EmotionRepository) Create(ctx context.Context, e *models.EmotionEvent) error {
	query := `
		INSERT INTO emotions (id, partnership_id, shared_by_id, emotion_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		e.ID, e.PartnershipID, e.SharedByID, e.EmotionType, e.Description, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create emotion: %w", err)
	}
	return nil
}

// ListByPartnership retrieves emotion events for a partnership, newest first,
// joined with the author's username.
func (r *EmotionRepository) ListByPartnership(ctx context.Context, partnershipID string, limit int) ([]*models.EmotionEvent, error) {
	query := `
		SELECT e.id, e.partnership_id, e.shared_by_id, u.username, e.emotion_type, e.description, e.created_at
		FROM emotions e
		JOIN users u ON u.id = e.shared_by_id
		WHERE e.partnership_id = $1
		ORDER BY e.created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, partnershipID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list emotions: %w", err)
	}
	defer rows.Close()

	var events []*models.EmotionEvent
	for rows.Next() {
		var e models.EmotionEvent
		err := rows.Scan(
			&e.ID, &e.PartnershipID, &e.SharedByID, &e.SharedByName,
			&e.EmotionType, &e.Description, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emotion: %w", err)
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emotions: %w", err)
	}

	return events, nil
}
