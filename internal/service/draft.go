package service

import (
	"context"
	"errors"
	"fmt"

	"sitebuilder/internal/data"
	"sitebuilder/internal/document"
)

// DraftService manages the single mutable working copy per page. Its writes
// are serialized per page through the shared lock set; everything committed
// to history stays immutable.
type DraftService struct {
	pages    PageRepository
	versions VersionRepository
	locks    *PageLocks
}

// NewDraftService creates a new DraftService.
func NewDraftService(pages PageRepository, versions VersionRepository, locks *PageLocks) *DraftService {
	return &DraftService{pages: pages, versions: versions, locks: locks}
}

// GetOrCreateDraft returns the page's open draft, creating one if none
// exists. A fresh draft is seeded from the currently published document, or
// from the empty shell for a page that has never been published.
func (s *DraftService) GetOrCreateDraft(ctx context.Context, pageID string) (*data.Version, error) {
	if _, err := s.pages.GetByID(ctx, pageID); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(pageID)
	defer unlock()

	draft, err := s.versions.GetDraft(ctx, pageID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, data.ErrNoDraft) {
		return nil, err
	}

	seed, err := s.seedDocument(ctx, pageID)
	if err != nil {
		return nil, err
	}
	return s.versions.AppendVersion(ctx, pageID, seed, data.StatusDraft)
}

// seedDocument picks the content a new draft starts from.
func (s *DraftService) seedDocument(ctx context.Context, pageID string) ([]byte, error) {
	published, err := s.versions.GetPublished(ctx, pageID)
	if err == nil {
		return published.Document, nil
	}
	if !errors.Is(err, data.ErrNotFound) {
		return nil, err
	}
	shell, err := document.Encode(document.Empty())
	if err != nil {
		return nil, fmt.Errorf("failed to encode empty document: %w", err)
	}
	return shell, nil
}

// SaveDraft overwrites the draft's content. Saves are last-write-wins at
// whole-document granularity; the draft must still be open, otherwise
// ErrNotADraft is returned and nothing is written. The document is stored as
// given; structural validation happens at publish time.
func (s *DraftService) SaveDraft(ctx context.Context, versionID string, doc document.Document) (*data.Version, error) {
	version, err := s.versions.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	raw, err := document.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	unlock := s.locks.lock(version.PageID)
	defer unlock()

	if err := s.versions.UpdateDraftDocument(ctx, versionID, raw); err != nil {
		return nil, err
	}
	return s.versions.GetVersion(ctx, versionID)
}

// DiscardDraft drops the page's open draft without committing it. The next
// GetOrCreateDraft starts over from the published content.
func (s *DraftService) DiscardDraft(ctx context.Context, pageID string) error {
	unlock := s.locks.lock(pageID)
	defer unlock()

	draft, err := s.versions.GetDraft(ctx, pageID)
	if err != nil {
		return err
	}
	return s.versions.DeleteDraft(ctx, draft.ID)
}
