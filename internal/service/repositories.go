package service

import (
	"context"
	"time"

	"sitebuilder/internal/data"
)

// PageRepository defines the registry operations the services need.
type PageRepository interface {
	CreatePage(ctx context.Context, slug, name string) (*data.Page, error)
	GetBySlug(ctx context.Context, slug string) (*data.Page, error)
	GetByID(ctx context.Context, id string) (*data.Page, error)
	ListPages(ctx context.Context) ([]*data.Page, error)
	SetPublishedVersion(ctx context.Context, pageID, versionID string) error
}

// VersionRepository defines the version-store operations the services need.
type VersionRepository interface {
	AppendVersion(ctx context.Context, pageID string, doc []byte, status data.VersionStatus) (*data.Version, error)
	GetVersion(ctx context.Context, id string) (*data.Version, error)
	GetDraft(ctx context.Context, pageID string) (*data.Version, error)
	GetPublished(ctx context.Context, pageID string) (*data.Version, error)
	LatestPublished(ctx context.Context, pageID string) (*data.Version, error)
	ListHistory(ctx context.Context, pageID string) ([]*data.Version, error)
	UpdateDraftDocument(ctx context.Context, versionID string, doc []byte) error
	FreezeDraft(ctx context.Context, versionID string, doc []byte) error
	DeleteDraft(ctx context.Context, versionID string) error
}

// TokenRepository defines the preview-token storage operations.
type TokenRepository interface {
	Insert(ctx context.Context, token *data.PreviewToken) error
	Get(ctx context.Context, token string) (*data.PreviewToken, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ContentCache defines the published-payload cache used by the read path.
type ContentCache interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
}
