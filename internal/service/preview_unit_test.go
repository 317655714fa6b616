//go:build unit

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sitebuilder/internal/data"
)

func newPreviewFixture(t *testing.T, defaultTTL time.Duration) (*PreviewService, *memStore, *data.Page, *data.Version) {
	t.Helper()
	store := newMemStore()
	ctx := context.Background()
	page, err := store.CreatePage(ctx, "home", "Home")
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	version, err := store.AppendVersion(ctx, page.ID, mustEncode(t, testDocument()), data.StatusPublished)
	if err != nil {
		t.Fatalf("failed to append version: %v", err)
	}
	return NewPreviewService(store, store, store, defaultTTL), store, page, version
}

func TestMint_GeneratesUnguessableToken(t *testing.T) {
	preview, _, _, version := newPreviewFixture(t, 0)
	ctx := context.Background()

	token, err := preview.Mint(ctx, version.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 32 bytes hex-encoded.
	if len(token.Token) != 64 {
		t.Errorf("expected 64-char token, got %d chars", len(token.Token))
	}
	if token.ExpiresAt != nil {
		t.Error("zero default TTL must mint a long-lived token")
	}

	other, err := preview.Mint(ctx, version.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Token == token.Token {
		t.Error("every mint must produce a distinct token")
	}
}

func TestMint_UnknownVersion(t *testing.T) {
	preview, _, _, _ := newPreviewFixture(t, 0)

	if _, err := preview.Mint(context.Background(), "missing", 0); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestMint_TTLPrecedence(t *testing.T) {
	preview, _, _, version := newPreviewFixture(t, time.Hour)
	ctx := context.Background()

	// Explicit TTL wins over the default.
	explicit, err := preview.Mint(ctx, version.ID, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if explicit.ExpiresAt == nil {
		t.Fatal("expected an expiry")
	}
	if until := time.Until(*explicit.ExpiresAt); until > 2*time.Minute {
		t.Errorf("expected roughly one minute of life, got %v", until)
	}

	// No explicit TTL falls back to the configured default.
	fallback, err := preview.Mint(ctx, version.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fallback.ExpiresAt == nil {
		t.Fatal("expected the default TTL to apply")
	}
	if until := time.Until(*fallback.ExpiresAt); until < 30*time.Minute {
		t.Errorf("expected roughly an hour of life, got %v", until)
	}
}

func TestResolve_ReturnsBoundVersion(t *testing.T) {
	preview, _, page, version := newPreviewFixture(t, 0)
	ctx := context.Background()

	token, err := preview.Mint(ctx, version.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gotPage, gotVersion, err := preview.Resolve(ctx, token.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPage.ID != page.ID {
		t.Errorf("expected page %q, got %q", page.ID, gotPage.ID)
	}
	if gotVersion.ID != version.ID {
		t.Errorf("expected version %q, got %q", version.ID, gotVersion.ID)
	}
}

func TestResolve_IgnoresLaterPublishes(t *testing.T) {
	preview, store, page, version := newPreviewFixture(t, 0)
	ctx := context.Background()

	token, err := preview.Mint(ctx, version.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A newer version becomes the published one; the token must not care.
	newer, _ := store.AppendVersion(ctx, page.ID, mustEncode(t, testDocument()), data.StatusPublished)
	if err := store.SetPublishedVersion(ctx, page.ID, newer.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, gotVersion, err := preview.Resolve(ctx, token.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotVersion.ID != version.ID {
		t.Errorf("token must stay bound to %q, resolved %q", version.ID, gotVersion.ID)
	}
	if string(gotVersion.Document) != string(version.Document) {
		t.Error("token must resolve to the exact document it was minted against")
	}
}

func TestResolve_ExpiredToken(t *testing.T) {
	preview, store, _, version := newPreviewFixture(t, 0)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	expired := &data.PreviewToken{Token: "stale", VersionID: version.ID, ExpiresAt: &past, CreatedAt: past.Add(-time.Hour)}
	if err := store.Insert(ctx, expired); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err := preview.Resolve(ctx, "stale")
	if !errors.Is(err, data.ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got: %v", err)
	}

	// Expired tokens are cleaned up; a second resolve sees nothing.
	_, _, err = preview.Resolve(ctx, "stale")
	if !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound after cleanup, got: %v", err)
	}
}

func TestRevoke(t *testing.T) {
	preview, _, _, version := newPreviewFixture(t, 0)
	ctx := context.Background()

	token, err := preview.Mint(ctx, version.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := preview.Revoke(ctx, token.Token); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := preview.Resolve(ctx, token.Token); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound after revocation, got: %v", err)
	}
	if err := preview.Revoke(ctx, token.Token); !errors.Is(err, data.ErrNotFound) {
		t.Errorf("expected ErrNotFound revoking twice, got: %v", err)
	}
}

func TestSweepExpired(t *testing.T) {
	preview, store, _, version := newPreviewFixture(t, 0)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Minute)
	if err := store.Insert(ctx, &data.PreviewToken{Token: "old", VersionID: version.ID, ExpiresAt: &past, CreatedAt: past}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := preview.Mint(ctx, version.ID, time.Hour); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := preview.SweepExpired(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 swept token, got %d", n)
	}
}
