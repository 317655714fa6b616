package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sitebuilder/internal/data"
	"sitebuilder/internal/document"
	"sitebuilder/internal/logger"
	"sitebuilder/internal/middleware"
	"sitebuilder/internal/service"

	"github.com/go-chi/chi/v5"
)

// EditorHandler serves the authenticated editor surface: page creation,
// draft editing, publishing, history, and preview link management. Callers
// reach it pre-authorized; the identity collaborator in front of this
// service enforces access before a request lands here.
type EditorHandler struct {
	registry *service.RegistryService
	drafts   *service.DraftService
	publish  *service.PublishService
	preview  *service.PreviewService
	log      logger.Logger
}

// NewEditorHandler creates a new EditorHandler with the given dependencies.
func NewEditorHandler(registry *service.RegistryService, drafts *service.DraftService, publish *service.PublishService, preview *service.PreviewService, log logger.Logger) *EditorHandler {
	return &EditorHandler{registry: registry, drafts: drafts, publish: publish, preview: preview, log: log}
}

// pageResponse is the editor-facing shape of a page.
type pageResponse struct {
	ID                 string    `json:"id"`
	Slug               string    `json:"slug"`
	Name               string    `json:"name"`
	PublishedVersionID *string   `json:"publishedVersionId"`
	CreatedAt          time.Time `json:"createdAt"`
}

// versionResponse is the editor-facing shape of a version.
type versionResponse struct {
	ID            string          `json:"id"`
	PageID        string          `json:"pageId"`
	VersionNumber int             `json:"versionNumber"`
	Status        string          `json:"status"`
	Document      json.RawMessage `json:"document"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func newPageResponse(p *data.Page) pageResponse {
	return pageResponse{
		ID:                 p.ID,
		Slug:               p.Slug,
		Name:               p.Name,
		PublishedVersionID: p.PublishedVersionID,
		CreatedAt:          p.CreatedAt,
	}
}

func newVersionResponse(v *data.Version) versionResponse {
	return versionResponse{
		ID:            v.ID,
		PageID:        v.PageID,
		VersionNumber: v.VersionNumber,
		Status:        string(v.Status),
		Document:      json.RawMessage(v.Document),
		CreatedAt:     v.CreatedAt,
	}
}

// createPageHandler registers a new page identity.
func (h *EditorHandler) createPageHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req struct {
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &middleware.AppError{Error: err, Message: "bad_request", Code: http.StatusBadRequest}
	}

	page, err := h.registry.CreatePage(r.Context(), req.Slug, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrInvalidSlug):
			return &middleware.AppError{Error: err, Message: "invalid_slug", Code: http.StatusUnprocessableEntity}
		case errors.Is(err, data.ErrSlugConflict):
			return &middleware.AppError{Error: err, Message: "slug_conflict", Code: http.StatusConflict}
		}
		return &middleware.AppError{Error: err, Message: "save_failed", Code: http.StatusInternalServerError}
	}

	editor := middleware.GetEditorInfo(r.Context())
	h.log.With(map[string]interface{}{
		"page":   page.ID,
		"slug":   page.Slug,
		"editor": editor.Subject,
	}).Info("page created")

	return writeJSON(w, http.StatusCreated, newPageResponse(page))
}

// listPagesHandler lists every page, published or not, for the editor's
// page index.
func (h *EditorHandler) listPagesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pages, err := h.registry.ListPages(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "load_failed", Code: http.StatusInternalServerError}
	}

	out := make([]pageResponse, len(pages))
	for i, p := range pages {
		out[i] = newPageResponse(p)
	}
	return writeJSON(w, http.StatusOK, out)
}

// getPageHandler returns a single page by ID.
func (h *EditorHandler) getPageHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID := chi.URLParam(r, "id")

	page, err := h.registry.GetPage(r.Context(), pageID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "load_failed", Code: http.StatusInternalServerError}
	}
	return writeJSON(w, http.StatusOK, newPageResponse(page))
}

// draftHandler returns the page's open draft, creating one if needed.
func (h *EditorHandler) draftHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID := chi.URLParam(r, "id")

	draft, err := h.drafts.GetOrCreateDraft(r.Context(), pageID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "save_failed", Code: http.StatusInternalServerError}
	}
	return writeJSON(w, http.StatusOK, newVersionResponse(draft))
}

// saveDraftHandler overwrites a draft's content.
func (h *EditorHandler) saveDraftHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	versionID := chi.URLParam(r, "versionID")

	var req struct {
		Document document.Document `json:"document"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &middleware.AppError{Error: err, Message: "bad_request", Code: http.StatusBadRequest}
	}

	version, err := h.drafts.SaveDraft(r.Context(), versionID, req.Document)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrNotFound):
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		case errors.Is(err, data.ErrNotADraft):
			return &middleware.AppError{Error: err, Message: "not_a_draft", Code: http.StatusConflict}
		}
		return &middleware.AppError{Error: err, Message: "save_failed", Code: http.StatusInternalServerError}
	}
	return writeJSON(w, http.StatusOK, newVersionResponse(version))
}

// discardDraftHandler drops the page's open draft.
func (h *EditorHandler) discardDraftHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID := chi.URLParam(r, "id")

	if err := h.drafts.DiscardDraft(r.Context(), pageID); err != nil {
		if errors.Is(err, data.ErrNoDraft) || errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "save_failed", Code: http.StatusInternalServerError}
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// publishHandler freezes the page's draft and makes it live.
func (h *EditorHandler) publishHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID := chi.URLParam(r, "id")

	version, err := h.publish.Publish(r.Context(), pageID)
	if err != nil {
		var validationErr *document.ValidationError
		switch {
		case errors.As(err, &validationErr):
			return &middleware.AppError{Error: err, Message: "invalid_document", Code: http.StatusUnprocessableEntity, Details: validationErr.Violations}
		case errors.Is(err, data.ErrNoDraft):
			return &middleware.AppError{Error: err, Message: "no_draft", Code: http.StatusConflict}
		case errors.Is(err, data.ErrNotFound):
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "publish_failed", Code: http.StatusInternalServerError}
	}

	editor := middleware.GetEditorInfo(r.Context())
	h.log.With(map[string]interface{}{
		"page":    pageID,
		"version": version.ID,
		"editor":  editor.Subject,
	}).Info("publish requested by editor")

	return writeJSON(w, http.StatusOK, newVersionResponse(version))
}

// historyHandler lists the page's versions, newest first.
func (h *EditorHandler) historyHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	pageID := chi.URLParam(r, "id")

	versions, err := h.registry.History(r.Context(), pageID)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "load_failed", Code: http.StatusInternalServerError}
	}

	out := make([]versionResponse, len(versions))
	for i, v := range versions {
		out[i] = newVersionResponse(v)
	}
	return writeJSON(w, http.StatusOK, out)
}

// mintPreviewHandler creates a shareable preview token for a version.
func (h *EditorHandler) mintPreviewHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req struct {
		VersionID  string `json:"versionId"`
		TTLSeconds int64  `json:"ttlSeconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &middleware.AppError{Error: err, Message: "bad_request", Code: http.StatusBadRequest}
	}
	if req.TTLSeconds < 0 {
		return &middleware.AppError{Error: fmt.Errorf("negative ttl %d", req.TTLSeconds), Message: "bad_request", Code: http.StatusBadRequest}
	}

	token, err := h.preview.Mint(r.Context(), req.VersionID, time.Duration(req.TTLSeconds)*time.Second)
	if err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "save_failed", Code: http.StatusInternalServerError}
	}

	return writeJSON(w, http.StatusCreated, map[string]interface{}{
		"token":     token.Token,
		"versionId": token.VersionID,
		"expiresAt": token.ExpiresAt,
	})
}

// revokePreviewHandler invalidates a preview token.
func (h *EditorHandler) revokePreviewHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	token := chi.URLParam(r, "token")

	if err := h.preview.Revoke(r.Context(), token); err != nil {
		if errors.Is(err, data.ErrNotFound) {
			return &middleware.AppError{Error: err, Message: "not_found", Code: http.StatusNotFound}
		}
		return &middleware.AppError{Error: err, Message: "save_failed", Code: http.StatusInternalServerError}
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
