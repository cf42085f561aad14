package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repos work inside and
// outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	getUserByID = `SELECT id, email, username, password_hash, created_at, updated_at
FROM users WHERE id = ?`

	getUserByEmail = `SELECT id, email, username, password_hash, created_at, updated_at
FROM users WHERE email = ?`

	createUser = `INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`

	updateUser = `UPDATE users SET email = ?, username = ?, updated_at = ? WHERE id = ?`

	deleteUser = `DELETE FROM users WHERE id = ?`

	createRefreshToken = `INSERT INTO refresh_tokens (token_hash, user_id, created_at, expires_at)
VALUES (?, ?, ?, ?)`

	consumeRefreshToken = `DELETE FROM refresh_tokens
WHERE token_hash = ? AND expires_at > ?
RETURNING token_hash, user_id, created_at, expires_at`

	deleteRefreshToken = `DELETE FROM refresh_tokens WHERE token_hash = ?`

	deleteExpiredRefreshTokens = `DELETE FROM refresh_tokens WHERE expires_at <= ?`
)

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
