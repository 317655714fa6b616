package service

import (
	"context"
	"errors"
	"fmt"

	"sitebuilder/internal/data"
	"sitebuilder/internal/document"
	"sitebuilder/internal/logger"
)

// PublishService is the coordinator for the draft-to-published transition.
// The order of writes is fixed: the version row is frozen first (the durable
// source of truth), then the page pointer is advanced. A crash between the
// two leaves a state that RepairPublishedPointers puts right on restart.
type PublishService struct {
	pages    PageRepository
	versions VersionRepository
	cache    ContentCache
	locks    *PageLocks
	log      logger.Logger
}

// NewPublishService creates a new PublishService.
func NewPublishService(pages PageRepository, versions VersionRepository, cache ContentCache, locks *PageLocks, log logger.Logger) *PublishService {
	return &PublishService{pages: pages, versions: versions, cache: cache, locks: locks, log: log}
}

// Publish freezes the page's open draft into an immutable published version
// and repoints the page at it. Validation failures are side-effect-free: the
// draft stays open and unchanged. After a successful publish no draft
// remains for the page.
func (s *PublishService) Publish(ctx context.Context, pageID string) (*data.Version, error) {
	page, err := s.pages.GetByID(ctx, pageID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(pageID)
	defer unlock()

	draft, err := s.versions.GetDraft(ctx, pageID)
	if err != nil {
		return nil, err
	}

	doc, err := document.Decode(draft.Document)
	if err != nil {
		return nil, fmt.Errorf("draft %s holds an undecodable document: %w", draft.ID, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	frozen, err := document.Encode(doc.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("failed to encode sanitized document: %w", err)
	}

	// Freeze first. Once this write lands the version is committed history
	// even if the pointer update below never happens.
	if err := s.versions.FreezeDraft(ctx, draft.ID, frozen); err != nil {
		return nil, err
	}
	if err := s.pages.SetPublishedVersion(ctx, pageID, draft.ID); err != nil {
		s.log.Error(err, fmt.Sprintf("publish of page %s froze version %s but could not advance the pointer; repair will complete it", pageID, draft.ID))
		return nil, err
	}

	if err := s.cache.Delete(slugCacheKey(page.Slug)); err != nil {
		s.log.Error(err, fmt.Sprintf("failed to invalidate cached content for slug %s", page.Slug))
	}

	s.log.With(map[string]interface{}{
		"page":    pageID,
		"slug":    page.Slug,
		"version": draft.ID,
	}).Info("page published")

	return s.versions.GetVersion(ctx, draft.ID)
}

// RepairPublishedPointers scans every page and advances any pointer that
// lags the newest published version. Run at startup so a crash between
// freeze and pointer update cannot leave a torn publish behind.
func (s *PublishService) RepairPublishedPointers(ctx context.Context) error {
	pages, err := s.pages.ListPages(ctx)
	if err != nil {
		return err
	}

	for _, page := range pages {
		latest, err := s.versions.LatestPublished(ctx, page.ID)
		if errors.Is(err, data.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if page.PublishedVersionID != nil && *page.PublishedVersionID == latest.ID {
			continue
		}

		if err := s.pages.SetPublishedVersion(ctx, page.ID, latest.ID); err != nil {
			return fmt.Errorf("failed to repair pointer for page %s: %w", page.ID, err)
		}
		if err := s.cache.Delete(slugCacheKey(page.Slug)); err != nil {
			s.log.Error(err, fmt.Sprintf("failed to invalidate cached content for slug %s", page.Slug))
		}
		s.log.With(map[string]interface{}{
			"page":    page.ID,
			"version": latest.ID,
		}).Warn("repaired published pointer left behind by an interrupted publish")
	}
	return nil
}
