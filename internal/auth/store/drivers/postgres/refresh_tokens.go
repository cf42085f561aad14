package postgres

import (
	"context"
	"time"

	"github.com/maratshchur/django-auth-template/internal/auth/domain"
)

type refreshTokensRepo struct {
	db DB
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token_hash, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.db.Exec(ctx, query, t.TokenHash, t.UserID, t.CreatedAt, t.ExpiresAt)
	return mapConstraint(err)
}

// ConsumeRefreshToken relies on row locking: a second DELETE racing on the
// same row waits for the first to commit, re-checks, and finds nothing.
func (r *refreshTokensRepo) ConsumeRefreshToken(
	ctx context.Context,
	hash string,
	now time.Time,
) (domain.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token_hash = $1 AND expires_at > $2
		RETURNING token_hash, user_id, created_at, expires_at`

	return r.scan(ctx, query, hash, now)
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, hash string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, hash)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *refreshTokensRepo) scan(ctx context.Context, query string, args ...any) (domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.QueryRow(ctx, query, args...).Scan(&t.TokenHash, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.ExpiresAt = t.ExpiresAt.UTC()
	return t, nil
}
