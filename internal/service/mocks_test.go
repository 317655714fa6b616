//go:build unit

package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"sitebuilder/internal/data"
	"sitebuilder/internal/document"
	"sitebuilder/internal/logger"
)

// memStore is an in-memory implementation of the repository interfaces with
// the same sentinel-error semantics as the SQL repositories. Error fields
// let tests inject failures at specific points.
type memStore struct {
	mu       sync.Mutex
	pages    map[string]*data.Page
	versions map[string]*data.Version
	tokens   map[string]*data.PreviewToken
	nextID   int

	setPublishedErr error
	freezeErr       error
	appendErr       error
}

var (
	_ PageRepository    = (*memStore)(nil)
	_ VersionRepository = (*memStore)(nil)
	_ TokenRepository   = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{
		pages:    make(map[string]*data.Page),
		versions: make(map[string]*data.Version),
		tokens:   make(map[string]*data.PreviewToken),
	}
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) CreatePage(ctx context.Context, slug, name string) (*data.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages {
		if p.Slug == slug {
			return nil, data.ErrSlugConflict
		}
	}
	page := &data.Page{ID: m.id("page"), Slug: slug, Name: name, CreatedAt: time.Now()}
	m.pages[page.ID] = page
	return page, nil
}

func (m *memStore) GetBySlug(ctx context.Context, slug string) (*data.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pages {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (m *memStore) GetByID(ctx context.Context, id string) (*data.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memStore) ListPages(ctx context.Context) ([]*data.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*data.Page, 0, len(m.pages))
	for _, p := range m.pages {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

func (m *memStore) SetPublishedVersion(ctx context.Context, pageID, versionID string) error {
	if m.setPublishedErr != nil {
		return m.setPublishedErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[versionID]
	if !ok {
		return data.ErrNotFound
	}
	if v.PageID != pageID {
		return data.ErrVersionMismatch
	}
	p, ok := m.pages[pageID]
	if !ok {
		return data.ErrNotFound
	}
	id := versionID
	p.PublishedVersionID = &id
	return nil
}

func (m *memStore) AppendVersion(ctx context.Context, pageID string, doc []byte, status data.VersionStatus) (*data.Version, error) {
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, v := range m.versions {
		if v.PageID == pageID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	version := &data.Version{
		ID:            m.id("version"),
		PageID:        pageID,
		VersionNumber: max + 1,
		Document:      append([]byte(nil), doc...),
		Status:        status,
		CreatedAt:     time.Now(),
	}
	m.versions[version.ID] = version
	clone := *version
	return &clone, nil
}

func (m *memStore) GetVersion(ctx context.Context, id string) (*data.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (m *memStore) GetDraft(ctx context.Context, pageID string) (*data.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions {
		if v.PageID == pageID && v.Status == data.StatusDraft {
			clone := *v
			return &clone, nil
		}
	}
	return nil, data.ErrNoDraft
}

func (m *memStore) GetPublished(ctx context.Context, pageID string) (*data.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[pageID]
	if !ok || p.PublishedVersionID == nil {
		return nil, data.ErrNotFound
	}
	v, ok := m.versions[*p.PublishedVersionID]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

func (m *memStore) LatestPublished(ctx context.Context, pageID string) (*data.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *data.Version
	for _, v := range m.versions {
		if v.PageID == pageID && v.Status == data.StatusPublished {
			if latest == nil || v.VersionNumber > latest.VersionNumber {
				latest = v
			}
		}
	}
	if latest == nil {
		return nil, data.ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (m *memStore) ListHistory(ctx context.Context, pageID string) ([]*data.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*data.Version
	for _, v := range m.versions {
		if v.PageID == pageID {
			clone := *v
			out = append(out, &clone)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].VersionNumber > out[i].VersionNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (m *memStore) UpdateDraftDocument(ctx context.Context, versionID string, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[versionID]
	if !ok {
		return data.ErrNotFound
	}
	if v.Status != data.StatusDraft {
		return data.ErrNotADraft
	}
	v.Document = append([]byte(nil), doc...)
	return nil
}

func (m *memStore) FreezeDraft(ctx context.Context, versionID string, doc []byte) error {
	if m.freezeErr != nil {
		return m.freezeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[versionID]
	if !ok {
		return data.ErrNotFound
	}
	if v.Status != data.StatusDraft {
		return data.ErrNotADraft
	}
	v.Document = append([]byte(nil), doc...)
	v.Status = data.StatusPublished
	return nil
}

func (m *memStore) DeleteDraft(ctx context.Context, versionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[versionID]
	if !ok {
		return data.ErrNotFound
	}
	if v.Status != data.StatusDraft {
		return data.ErrNotADraft
	}
	delete(m.versions, versionID)
	return nil
}

func (m *memStore) Insert(ctx context.Context, token *data.PreviewToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *token
	m.tokens[token.Token] = &clone
	return nil
}

func (m *memStore) Get(ctx context.Context, token string) (*data.PreviewToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (m *memStore) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return data.ErrNotFound
	}
	delete(m.tokens, token)
	return nil
}

func (m *memStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, t := range m.tokens {
		if t.Expired(now) {
			delete(m.tokens, k)
			n++
		}
	}
	return n, nil
}

// memCache is an in-memory ContentCache.
type memCache struct {
	mu      sync.Mutex
	items   map[string][]byte
	deletes []string
}

var _ ContentCache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items[key], nil
}

func (c *memCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = append([]byte(nil), value...)
	return nil
}

func (c *memCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	c.deletes = append(c.deletes, key)
	return nil
}

// testDocument returns a small valid document.
func testDocument() document.Document {
	return document.Document{
		SchemaVersion: document.SchemaVersion,
		Blocks: []document.Block{
			{Kind: document.KindHeading, Text: "Welcome", Level: 1},
			{Kind: document.KindText, HTML: "<p>hello</p>"},
		},
	}
}

func mustEncode(t *testing.T, doc document.Document) []byte {
	t.Helper()
	raw, err := document.Encode(doc)
	if err != nil {
		t.Fatalf("failed to encode document: %v", err)
	}
	return raw
}

// nopLogger keeps service constructors satisfied in tests.
type nopLogger struct{}

func (nopLogger) Info(string)                            {}
func (nopLogger) Warn(string)                            {}
func (nopLogger) Error(error, string)                    {}
func (nopLogger) Fatal(error, string)                    {}
func (l nopLogger) With(map[string]interface{}) logger.Logger { return l }
