package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQLTokenRepository stores preview tokens. Rows are insert-once: a token is
// never reassigned to a different version, and revocation is deletion.
type SQLTokenRepository struct {
	db *sqlx.DB
}

// NewSQLTokenRepository creates a new SQLTokenRepository.
func NewSQLTokenRepository(db *sqlx.DB) *SQLTokenRepository {
	return &SQLTokenRepository{db: db}
}

// Insert stores a freshly minted token.
func (r *SQLTokenRepository) Insert(ctx context.Context, token *PreviewToken) error {
	query := `INSERT INTO preview_tokens (token, version_id, expires_at, created_at)
		VALUES (:token, :version_id, :expires_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to insert preview token: %w", err)
	}
	return nil
}

// Get retrieves a token by its value. Expiry is the caller's concern; this
// returns the row as stored.
func (r *SQLTokenRepository) Get(ctx context.Context, token string) (*PreviewToken, error) {
	var t PreviewToken
	query := `SELECT token, version_id, expires_at, created_at FROM preview_tokens WHERE token = ?`
	if err := r.db.GetContext(ctx, &t, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("preview token: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get preview token: %w", err)
	}
	return &t, nil
}

// Delete removes a token (revocation, or cleanup of an expired row).
func (r *SQLTokenRepository) Delete(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM preview_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("failed to delete preview token: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("preview token: %w", ErrNotFound)
	}
	return nil
}

// DeleteExpired removes every token whose expiry lies before now. Returns
// the number of rows removed.
func (r *SQLTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM preview_tokens WHERE expires_at IS NOT NULL AND expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired preview tokens: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
