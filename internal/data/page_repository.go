package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// slugPattern allows lowercase alphanumerics separated by single or repeated
// hyphens, never leading or trailing. Slugs are normalized to lowercase
// before the check, so uniqueness is case-insensitive.
var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// SQLPageRepository is the page registry: it owns the slug-to-page mapping
// and is the single mutator of the published pointer.
type SQLPageRepository struct {
	db *sqlx.DB
}

// NewSQLPageRepository creates a new SQLPageRepository.
func NewSQLPageRepository(db *sqlx.DB) *SQLPageRepository {
	return &SQLPageRepository{db: db}
}

// CreatePage registers a new page under the given slug. It returns
// ErrInvalidSlug if the slug fails the format check and ErrSlugConflict if
// another page already owns it.
func (r *SQLPageRepository) CreatePage(ctx context.Context, slug, name string) (*Page, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("slug %q: %w", slug, ErrInvalidSlug)
	}

	page := &Page{
		ID:        uuid.NewString(),
		Slug:      slug,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	query := `INSERT INTO pages (id, slug, name, created_at) VALUES (:id, :slug, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, page); err != nil {
		// The unique index on slug is the authority; concurrent creates
		// for the same slug lose here rather than in a pre-check race.
		if isDuplicateErr(err) {
			return nil, fmt.Errorf("slug %q: %w", slug, ErrSlugConflict)
		}
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}

// GetBySlug retrieves a page by its slug.
func (r *SQLPageRepository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	var page Page
	query := `SELECT id, slug, name, published_version_id, created_at FROM pages WHERE slug = ?`
	if err := r.db.GetContext(ctx, &page, query, strings.ToLower(slug)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page with slug %q: %w", slug, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get page by slug: %w", err)
	}
	return &page, nil
}

// GetByID retrieves a page by its ID.
func (r *SQLPageRepository) GetByID(ctx context.Context, id string) (*Page, error) {
	var page Page
	query := `SELECT id, slug, name, published_version_id, created_at FROM pages WHERE id = ?`
	if err := r.db.GetContext(ctx, &page, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("page with id %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get page by id: %w", err)
	}
	return &page, nil
}

// ListPages retrieves all pages, ordered by slug.
func (r *SQLPageRepository) ListPages(ctx context.Context) ([]*Page, error) {
	var pages []*Page
	query := `SELECT id, slug, name, published_version_id, created_at FROM pages ORDER BY slug`
	if err := r.db.SelectContext(ctx, &pages, query); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return pages, nil
}

// SetPublishedVersion advances the page's published pointer. It is only
// called by the publish coordinator (publish and pointer repair); the
// pointer is never mutated anywhere else. The update is guarded so the
// pointer can only reference a version that belongs to the page; a
// mismatched pair returns ErrVersionMismatch.
func (r *SQLPageRepository) SetPublishedVersion(ctx context.Context, pageID, versionID string) error {
	var ownerID string
	if err := r.db.GetContext(ctx, &ownerID, `SELECT page_id FROM versions WHERE id = ?`, versionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("version %q: %w", versionID, ErrNotFound)
		}
		return fmt.Errorf("failed to look up version owner: %w", err)
	}
	if ownerID != pageID {
		return fmt.Errorf("version %q belongs to page %q, not %q: %w", versionID, ownerID, pageID, ErrVersionMismatch)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE pages SET published_version_id = ? WHERE id = ?`, versionID, pageID)
	if err != nil {
		return fmt.Errorf("failed to set published version: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}
	// MySQL reports zero affected rows when the pointer already holds this
	// value; only a missing page is an error.
	page, err := r.GetByID(ctx, pageID)
	if err != nil {
		return err
	}
	if page.PublishedVersionID != nil && *page.PublishedVersionID == versionID {
		return nil
	}
	return fmt.Errorf("page with id %q: %w", pageID, ErrNotFound)
}
