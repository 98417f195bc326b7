package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/quickksynkk/synk-hub/internal/domain/recommendation"
	"github.com/quickksynkk/synk-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMMENDATION REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RecommendationRepository implements recommendation.Repository for PostgreSQL.
// Items are stored as a JSONB array in generation order.
type RecommendationRepository struct {
	conn *Connection
}

// NewRecommendationRepository creates a new RecommendationRepository.
func NewRecommendationRepository(conn *Connection) *RecommendationRepository {
	return &RecommendationRepository{conn: conn}
}

var _ recommendation.Repository = (*RecommendationRepository)(nil)

// SaveBatch stores batch and drops the user's older batches in one transaction.
func (r *RecommendationRepository) SaveBatch(ctx context.Context, batch *recommendation.Batch) error {
	if batch == nil || batch.UserID == "" {
		return shared.ErrInvalidUserID
	}

	items, err := json.Marshal(batch.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}

	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	err = r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM recommendation_batches WHERE user_id = $1`, batch.UserID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO recommendation_batches (id, user_id, items, generated_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)
		`, batch.ID, batch.UserID, items, batch.GeneratedAt, batch.ExpiresAt)
		return err
	})
	if err != nil {
		return batchError("SaveBatch", err)
	}
	return nil
}

// GetLatestBatch returns the newest batch for a user.
func (r *RecommendationRepository) GetLatestBatch(ctx context.Context, userID string) (*recommendation.Batch, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	var (
		batch recommendation.Batch
		items []byte
	)
	err := r.conn.QueryRow(ctx, `
		SELECT id, user_id, items, generated_at, expires_at
		FROM recommendation_batches
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`, userID).Scan(&batch.ID, &batch.UserID, &items, &batch.GeneratedAt, &batch.ExpiresAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRecommendationsNotFound
		}
		return nil, batchError("GetLatestBatch", err)
	}

	batch.Items = []recommendation.Recommendation{}
	if err := json.Unmarshal(items, &batch.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations of %s: %w", userID, err)
	}
	return &batch, nil
}

// DeleteExpired removes batches whose expiry is at or before now.
func (r *RecommendationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.conn.withTimeout(ctx)
	defer cancel()

	result, err := r.conn.Exec(ctx, `DELETE FROM recommendation_batches WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, batchError("DeleteExpired", err)
	}
	return result.RowsAffected(), nil
}

func batchError(op string, err error) error {
	kind := shared.ErrExternalService
	if IsUnavailable(err) {
		kind = shared.ErrServiceUnavailable
	}
	return shared.WrapError("recommendation", op, kind, "recommendation store request failed", err)
}
