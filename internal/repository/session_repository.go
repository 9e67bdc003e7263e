package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type sessionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSessionRepository creates a PostgreSQL-backed revocation list.
func NewSessionRepository(pool *pgxpool.Pool, logger zerolog.Logger) SessionRepository {
	return &sessionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "session").Logger(),
	}
}

// Revoke records tokenID as revoked until expiresAt. Revoking twice is a no-op.
func (r *sessionRepository) Revoke(ctx context.Context, tokenID uuid.UUID, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO revoked_sessions (token_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING
	`, tokenID, expiresAt)
	if err != nil {
		r.logger.Error().Err(err).Str("token_id", tokenID.String()).Msg("failed to revoke session")
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *sessionRepository) IsRevoked(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_sessions WHERE token_id = $1)`,
		tokenID,
	).Scan(&revoked)
	if err != nil {
		r.logger.Error().Err(err).Str("token_id", tokenID.String()).Msg("failed to check session")
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}
	return revoked, nil
}

// PruneExpired deletes revocations whose tokens have expired by now.
func (r *sessionRepository) PruneExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM revoked_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to prune revoked sessions")
		return 0, fmt.Errorf("failed to prune revoked sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
