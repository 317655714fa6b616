package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// appendRetries bounds how often AppendVersion retries after losing a
// version-number race to a concurrent append on the same page.
const appendRetries = 5

// SQLVersionRepository is the version store: an append-only history of
// content versions per page. Committed versions are never edited or deleted;
// the only in-place writes target rows still in draft status.
type SQLVersionRepository struct {
	db *sqlx.DB
}

// NewSQLVersionRepository creates a new SQLVersionRepository.
func NewSQLVersionRepository(db *sqlx.DB) *SQLVersionRepository {
	return &SQLVersionRepository{db: db}
}

// AppendVersion inserts a new version for the page with the next version
// number. The number is assigned by the insert statement itself
// (COALESCE(MAX)+1 in a single statement), so two concurrent appends for the
// same page cannot both observe the same maximum without one of them
// violating the (page_id, version_number) unique index; the loser retries.
func (r *SQLVersionRepository) AppendVersion(ctx context.Context, pageID string, doc []byte, status VersionStatus) (*Version, error) {
	query := `INSERT INTO versions (id, page_id, version_number, document, status, created_at)
		SELECT ?, ?, COALESCE(MAX(version_number), 0) + 1, ?, ?, ?
		FROM versions WHERE page_id = ?`

	var lastErr error
	for attempt := 0; attempt < appendRetries; attempt++ {
		id := uuid.NewString()
		createdAt := time.Now().UTC()
		_, err := r.db.ExecContext(ctx, query, id, pageID, doc, status, createdAt, pageID)
		if err != nil {
			if isDuplicateErr(err) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("failed to append version: %w", err)
		}
		return r.GetVersion(ctx, id)
	}
	return nil, fmt.Errorf("failed to append version after %d attempts: %w", appendRetries, lastErr)
}

// GetVersion retrieves a single version by its ID.
func (r *SQLVersionRepository) GetVersion(ctx context.Context, id string) (*Version, error) {
	var version Version
	query := `SELECT id, page_id, version_number, document, status, created_at FROM versions WHERE id = ?`
	if err := r.db.GetContext(ctx, &version, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("version with id %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get version by id: %w", err)
	}
	return &version, nil
}

// GetDraft retrieves the page's open draft, if any.
func (r *SQLVersionRepository) GetDraft(ctx context.Context, pageID string) (*Version, error) {
	var version Version
	query := `SELECT id, page_id, version_number, document, status, created_at FROM versions WHERE page_id = ? AND status = ?`
	if err := r.db.GetContext(ctx, &version, query, pageID, StatusDraft); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %q: %w", pageID, ErrNoDraft)
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return &version, nil
}

// GetPublished retrieves the version the page's published pointer references.
func (r *SQLVersionRepository) GetPublished(ctx context.Context, pageID string) (*Version, error) {
	var version Version
	query := `SELECT v.id, v.page_id, v.version_number, v.document, v.status, v.created_at
		FROM versions v
		JOIN pages p ON p.published_version_id = v.id
		WHERE p.id = ?`
	if err := r.db.GetContext(ctx, &version, query, pageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %q has no published version: %w", pageID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get published version: %w", err)
	}
	return &version, nil
}

// LatestPublished retrieves the newest published version for a page,
// independent of the pointer. Used by pointer repair, for which the version
// rows are the source of truth.
func (r *SQLVersionRepository) LatestPublished(ctx context.Context, pageID string) (*Version, error) {
	var version Version
	query := `SELECT id, page_id, version_number, document, status, created_at
		FROM versions WHERE page_id = ? AND status = ?
		ORDER BY version_number DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &version, query, pageID, StatusPublished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page %q has no published version: %w", pageID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest published version: %w", err)
	}
	return &version, nil
}

// ListHistory retrieves all versions of a page, newest first.
func (r *SQLVersionRepository) ListHistory(ctx context.Context, pageID string) ([]*Version, error) {
	var versions []*Version
	query := `SELECT id, page_id, version_number, document, status, created_at
		FROM versions WHERE page_id = ? ORDER BY version_number DESC`
	if err := r.db.SelectContext(ctx, &versions, query, pageID); err != nil {
		return nil, fmt.Errorf("failed to list version history: %w", err)
	}
	return versions, nil
}

// UpdateDraftDocument overwrites the document of a version that is still in
// draft status. This is the single exception to version immutability; the
// status guard in the WHERE clause makes it impossible to touch a published
// row. Returns ErrNotADraft if the version exists but is already published.
func (r *SQLVersionRepository) UpdateDraftDocument(ctx context.Context, versionID string, doc []byte) error {
	result, err := r.db.ExecContext(ctx, `UPDATE versions SET document = ? WHERE id = ? AND status = ?`, doc, versionID, StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to update draft document: %w", err)
	}
	return r.checkDraftWrite(ctx, result, versionID)
}

// FreezeDraft commits a draft: it writes the final document and flips the
// status to published in one statement, after which the row is immutable.
// The draft's content and number are retained; only the publish coordinator
// calls this, before it advances the page pointer.
func (r *SQLVersionRepository) FreezeDraft(ctx context.Context, versionID string, doc []byte) error {
	result, err := r.db.ExecContext(ctx, `UPDATE versions SET document = ?, status = ? WHERE id = ? AND status = ?`,
		doc, StatusPublished, versionID, StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to freeze draft: %w", err)
	}
	return r.checkDraftWrite(ctx, result, versionID)
}

// DeleteDraft discards an open draft. Only rows still in draft status can be
// deleted; committed history is untouchable.
func (r *SQLVersionRepository) DeleteDraft(ctx context.Context, versionID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM versions WHERE id = ? AND status = ?`, versionID, StatusDraft)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return r.checkDraftWrite(ctx, result, versionID)
}

// checkDraftWrite distinguishes "version missing" from "version exists but
// is not a draft" after a status-guarded write matched zero rows.
func (r *SQLVersionRepository) checkDraftWrite(ctx context.Context, result sql.Result, versionID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	version, err := r.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	// MySQL reports zero affected rows when the new values equal the old
	// ones; a matched draft row is still a successful write.
	if version.IsDraft() {
		return nil
	}
	return fmt.Errorf("version %q: %w", versionID, ErrNotADraft)
}
