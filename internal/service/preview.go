package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"sitebuilder/internal/data"
)

// tokenBytes is the entropy of a preview token. 32 bytes (256 bits) makes
// the token value unguessable; it is hex-encoded for URL safety.
const tokenBytes = 32

// PreviewService mints and resolves preview tokens. A token binds to one
// exact version forever: later publishes or new drafts never change what it
// resolves to.
type PreviewService struct {
	pages      PageRepository
	versions   VersionRepository
	tokens     TokenRepository
	defaultTTL time.Duration
}

// NewPreviewService creates a new PreviewService. A zero defaultTTL means
// tokens minted without an explicit lifetime never expire.
func NewPreviewService(pages PageRepository, versions VersionRepository, tokens TokenRepository, defaultTTL time.Duration) *PreviewService {
	return &PreviewService{pages: pages, versions: versions, tokens: tokens, defaultTTL: defaultTTL}
}

// Mint creates a token for the given version. ttl overrides the configured
// default; pass zero to use it. Returns ErrNotFound if the version is absent.
func (s *PreviewService) Mint(ctx context.Context, versionID string, ttl time.Duration) (*data.PreviewToken, error) {
	if _, err := s.versions.GetVersion(ctx, versionID); err != nil {
		return nil, err
	}

	value, err := newTokenValue()
	if err != nil {
		return nil, err
	}

	if ttl == 0 {
		ttl = s.defaultTTL
	}
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().UTC().Add(ttl)
		expiresAt = &t
	}

	token := &data.PreviewToken{
		Token:     value,
		VersionID: versionID,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.tokens.Insert(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Resolve looks up a token and returns the page and the exact version it was
// minted against, regardless of what is currently published. Expired tokens
// return ErrTokenExpired and are cleaned up best-effort.
func (s *PreviewService) Resolve(ctx context.Context, token string) (*data.Page, *data.Version, error) {
	t, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if t.Expired(time.Now().UTC()) {
		_ = s.tokens.Delete(ctx, token)
		return nil, nil, fmt.Errorf("preview token: %w", data.ErrTokenExpired)
	}

	version, err := s.versions.GetVersion(ctx, t.VersionID)
	if err != nil {
		return nil, nil, err
	}
	page, err := s.pages.GetByID(ctx, version.PageID)
	if err != nil {
		return nil, nil, err
	}
	return page, version, nil
}

// Revoke invalidates a token by deleting it.
func (s *PreviewService) Revoke(ctx context.Context, token string) error {
	return s.tokens.Delete(ctx, token)
}

// SweepExpired removes every expired token. Intended for a periodic
// background run; resolution already treats expired tokens as gone, so this
// only reclaims storage.
func (s *PreviewService) SweepExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, time.Now().UTC())
}

func newTokenValue() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate preview token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
