package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository handles personal access token database operations.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a new token.
func (r *TokenRepository) Create(ctx context.Context, token *APIToken) error {
	query := `
		INSERT INTO api_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	return nil
}

// GetByHash retrieves an unexpired token by its hash.
func (r *TokenRepository) GetByHash(ctx context.Context, hash string) (*APIToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, last_used_at
		FROM api_tokens
		WHERE token_hash = $1 AND expires_at > NOW()
	`
	var token APIToken
	err := r.pool.QueryRow(ctx, query, hash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.LastUsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying token: %w", err)
	}
	return &token, nil
}

// TouchLastUsed records when a token last authenticated a request.
func (r *TokenRepository) TouchLastUsed(ctx context.Context, id string, usedAt time.Time) error {
	query := `UPDATE api_tokens SET last_used_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, usedAt)
	if err != nil {
		return fmt.Errorf("updating token last used: %w", err)
	}
	return nil
}

// DeleteExpired removes all expired tokens.
func (r *TokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM api_tokens WHERE expires_at <= NOW()`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	return result.RowsAffected(), nil
}

// DeleteForUser removes all tokens for a user.
func (r *TokenRepository) DeleteForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM api_tokens WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("deleting user tokens: %w", err)
	}
	return nil
}
