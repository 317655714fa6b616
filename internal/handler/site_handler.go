package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"sitebuilder/internal/data"
	"sitebuilder/internal/logger"
	"sitebuilder/internal/middleware"
	"sitebuilder/internal/service"

	"github.com/go-chi/chi/v5"
)

// SiteHandler serves the public, anonymous read surface: published content
// by slug and version snapshots via preview tokens. Nothing here can reach a
// draft.
type SiteHandler struct {
	reader  *service.ReaderService
	preview *service.PreviewService
	log     logger.Logger
}

// NewSiteHandler creates a new SiteHandler with the given dependencies.
func NewSiteHandler(reader *service.ReaderService, preview *service.PreviewService, log logger.Logger) *SiteHandler {
	return &SiteHandler{reader: reader, preview: preview, log: log}
}

// pageHandler serves the published version of a page. Unknown and
// never-published slugs are indistinguishable (both 404); a storage failure
// is a distinct 500 so clients can retry instead of treating it as absence.
func (h *SiteHandler) pageHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	slug := chi.URLParam(r, "slug")

	payload, err := h.reader.GetPublishedBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "load_failed", Code: http.StatusInternalServerError}
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
	return nil
}

// previewHandler resolves a preview token to the exact version it was minted
// against. Unknown, expired, and revoked tokens all look the same from
// outside: 404.
func (h *SiteHandler) previewHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	token := chi.URLParam(r, "token")

	page, version, err := h.preview.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) || errors.Is(err, data.ErrTokenExpired) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "load_failed", Code: http.StatusInternalServerError}
	}

	payload := service.PublishedPage{
		Page: service.PagePayload{
			ID:   page.ID,
			Slug: page.Slug,
			Name: page.Name,
		},
		Version: service.VersionPayload{
			ID:            version.ID,
			VersionNumber: version.VersionNumber,
			Document:      json.RawMessage(version.Document),
		},
	}
	return writeJSON(w, http.StatusOK, payload)
}

// writeJSON encodes v as the JSON response body.
func writeJSON(w http.ResponseWriter, code int, v interface{}) *middleware.AppError {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return &middleware.AppError{Error: err, Message: "encode_failed", Code: http.StatusInternalServerError}
	}
	return nil
}
