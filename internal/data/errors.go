package data

import (
	"errors"
	"strings"
)

// Sentinel errors for the content store. Handlers and services distinguish
// these from raw storage failures with errors.Is; anything else bubbling out
// of this package is a storage failure and must not be conflated with "does
// not exist".
var (
	// ErrNotFound means the requested page, version, or token is absent.
	ErrNotFound = errors.New("not found")

	// ErrSlugConflict means another page already owns the slug
	// (comparison is case-insensitive).
	ErrSlugConflict = errors.New("slug already in use")

	// ErrInvalidSlug means the slug fails the allowed-character check.
	ErrInvalidSlug = errors.New("invalid slug")

	// ErrVersionMismatch means the version does not belong to the page it
	// was supposed to be published for.
	ErrVersionMismatch = errors.New("version does not belong to page")

	// ErrNotADraft means a draft-only operation was attempted on a version
	// that has already been published.
	ErrNotADraft = errors.New("version is not a draft")

	// ErrNoDraft means the page has no open draft.
	ErrNoDraft = errors.New("page has no open draft")

	// ErrTokenExpired means the preview token exists but has passed its expiry.
	ErrTokenExpired = errors.New("preview token expired")
)

// isDuplicateErr reports whether err is a unique-constraint violation from
// either supported driver (MySQL in production, SQLite in tests).
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
