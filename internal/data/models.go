package data

import "time"

// VersionStatus is the lifecycle state of a content version.
type VersionStatus string

const (
	StatusDraft     VersionStatus = "draft"
	StatusPublished VersionStatus = "published"
)

// Page represents one site page: the stable identity a slug maps to, plus
// the pointer to whichever version is currently served to public traffic.
// A nil PublishedVersionID means the page has never been published.
type Page struct {
	ID                 string    `db:"id"`
	Slug               string    `db:"slug"`
	Name               string    `db:"name"`
	PublishedVersionID *string   `db:"published_version_id"`
	CreatedAt          time.Time `db:"created_at"`
}

// IsPublished reports whether the page has a live version.
func (p *Page) IsPublished() bool {
	return p.PublishedVersionID != nil
}

// Version is one entry in a page's append-only history. Document and
// VersionNumber are immutable once the version leaves draft status.
type Version struct {
	ID            string        `db:"id"`
	PageID        string        `db:"page_id"`
	VersionNumber int           `db:"version_number"`
	Document      []byte        `db:"document"`
	Status        VersionStatus `db:"status"`
	CreatedAt     time.Time     `db:"created_at"`
}

// IsDraft reports whether the version is still the mutable working copy.
func (v *Version) IsDraft() bool {
	return v.Status == StatusDraft
}

// PreviewToken is an unguessable capability bound permanently to a single
// version. A nil ExpiresAt means the token is long-lived.
type PreviewToken struct {
	Token     string     `db:"token"`
	VersionID string     `db:"version_id"`
	ExpiresAt *time.Time `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Expired reports whether the token has passed its expiry at the given time.
func (t *PreviewToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
