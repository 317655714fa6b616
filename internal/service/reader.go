package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sitebuilder/internal/data"
	"sitebuilder/internal/logger"
)

// PublishedPage is the public payload for a published page: identity plus
// the exact content snapshot the published pointer references.
type PublishedPage struct {
	Page    PagePayload    `json:"page"`
	Version VersionPayload `json:"version"`
}

// PagePayload is the public identity of a page.
type PagePayload struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// VersionPayload is the public shape of a content version.
type VersionPayload struct {
	ID            string          `json:"id"`
	VersionNumber int             `json:"versionNumber"`
	Document      json.RawMessage `json:"document"`
}

// ReaderService is the public read path. It only ever follows the published
// pointer; draft content is unreachable from here by construction, since an
// unpublished page simply has no pointer to follow.
type ReaderService struct {
	pages    PageRepository
	versions VersionRepository
	cache    ContentCache
	cacheTTL time.Duration
	log      logger.Logger
}

// NewReaderService creates a new ReaderService.
func NewReaderService(pages PageRepository, versions VersionRepository, cache ContentCache, cacheTTL time.Duration, log logger.Logger) *ReaderService {
	return &ReaderService{pages: pages, versions: versions, cache: cache, cacheTTL: cacheTTL, log: log}
}

// GetPublishedBySlug returns the published payload for a slug, serving from
// the cache when possible. An unknown slug and a never-published page both
// return ErrNotFound; storage failures surface as distinct errors so callers
// can tell "nothing to show" from "could not check".
func (s *ReaderService) GetPublishedBySlug(ctx context.Context, slug string) ([]byte, error) {
	// Slugs are stored lowercase; normalize before the cache key so a
	// case-variant request shares the canonical entry that publish
	// invalidates.
	slug = strings.ToLower(strings.TrimSpace(slug))
	key := slugCacheKey(slug)
	if cached, err := s.cache.Get(key); err != nil {
		s.log.Error(err, fmt.Sprintf("content cache read failed for slug %s", slug))
	} else if cached != nil {
		return cached, nil
	}

	page, err := s.pages.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !page.IsPublished() {
		return nil, fmt.Errorf("page %q is not published: %w", slug, data.ErrNotFound)
	}
	version, err := s.versions.GetVersion(ctx, *page.PublishedVersionID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(PublishedPage{
		Page: PagePayload{
			ID:   page.ID,
			Slug: page.Slug,
			Name: page.Name,
		},
		Version: VersionPayload{
			ID:            version.ID,
			VersionNumber: version.VersionNumber,
			Document:      json.RawMessage(version.Document),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal published payload: %w", err)
	}

	if err := s.cache.Set(key, payload, s.cacheTTL); err != nil {
		s.log.Error(err, fmt.Sprintf("content cache write failed for slug %s", slug))
	}
	return payload, nil
}

// PublishedSummary describes one publicly visible page for site indexes.
type PublishedSummary struct {
	Slug        string
	PublishedAt time.Time
}

// ListPublishedSummaries returns every page currently visible to public
// traffic, with the commit time of its live version. Draft-only pages have
// no pointer and are skipped.
func (s *ReaderService) ListPublishedSummaries(ctx context.Context) ([]PublishedSummary, error) {
	pages, err := s.pages.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]PublishedSummary, 0, len(pages))
	for _, p := range pages {
		if !p.IsPublished() {
			continue
		}
		version, err := s.versions.GetVersion(ctx, *p.PublishedVersionID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, PublishedSummary{
			Slug:        p.Slug,
			PublishedAt: version.CreatedAt,
		})
	}
	return summaries, nil
}

func slugCacheKey(slug string) string {
	return "page:" + slug
}
