package service

import (
	"context"

	"sitebuilder/internal/data"
)

// RegistryService exposes page identity and history to the editor surface.
// It is a thin layer over the registry and version store; the published
// pointer is deliberately not writable from here.
type RegistryService struct {
	pages    PageRepository
	versions VersionRepository
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(pages PageRepository, versions VersionRepository) *RegistryService {
	return &RegistryService{pages: pages, versions: versions}
}

// CreatePage registers a new page. The page starts with no versions and no
// published pointer; it is invisible to public traffic until first publish.
func (s *RegistryService) CreatePage(ctx context.Context, slug, name string) (*data.Page, error) {
	return s.pages.CreatePage(ctx, slug, name)
}

// GetPage retrieves a page by ID.
func (s *RegistryService) GetPage(ctx context.Context, id string) (*data.Page, error) {
	return s.pages.GetByID(ctx, id)
}

// ListPages retrieves all pages, published or not.
func (s *RegistryService) ListPages(ctx context.Context) ([]*data.Page, error) {
	return s.pages.ListPages(ctx)
}

// History retrieves the page's full version history, newest first. The page
// is resolved first so an unknown ID reports ErrNotFound rather than an
// empty history.
func (s *RegistryService) History(ctx context.Context, pageID string) ([]*data.Version, error) {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return nil, err
	}
	return s.versions.ListHistory(ctx, pageID)
}
