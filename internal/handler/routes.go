package handler

import (
	"net/http"

	appmiddleware "sitebuilder/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router. authzMiddleware is the
// injected pre-authorization hook guarding the editor surface; access
// control itself is the identity collaborator's job, enforced there before
// any core operation runs.
func NewRouter(siteHandler *SiteHandler, editorHandler *EditorHandler, seoHandler *SeoHandler, authzMiddleware func(http.Handler) http.Handler, errorMiddleware func(appmiddleware.AppHandler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Public read path: published content and preview snapshots only.
	r.Method(http.MethodGet, "/pages/{slug}", errorMiddleware(siteHandler.pageHandler))
	r.Method(http.MethodGet, "/preview/{token}", errorMiddleware(siteHandler.previewHandler))
	r.Get("/robots.txt", seoHandler.robotsHandler)
	r.Get("/sitemap.xml", seoHandler.sitemapHandler)

	// Editor surface, reached only through the pre-authorization hook.
	r.Route("/api", func(r chi.Router) {
		r.Use(authzMiddleware)
		r.Use(appmiddleware.EditorContext)

		r.Method(http.MethodPost, "/pages", errorMiddleware(editorHandler.createPageHandler))
		r.Method(http.MethodGet, "/pages", errorMiddleware(editorHandler.listPagesHandler))
		r.Method(http.MethodGet, "/pages/{id}", errorMiddleware(editorHandler.getPageHandler))
		r.Method(http.MethodPost, "/pages/{id}/draft", errorMiddleware(editorHandler.draftHandler))
		r.Method(http.MethodDelete, "/pages/{id}/draft", errorMiddleware(editorHandler.discardDraftHandler))
		r.Method(http.MethodPost, "/pages/{id}/publish", errorMiddleware(editorHandler.publishHandler))
		r.Method(http.MethodGet, "/pages/{id}/versions", errorMiddleware(editorHandler.historyHandler))
		r.Method(http.MethodPut, "/drafts/{versionID}", errorMiddleware(editorHandler.saveDraftHandler))
		r.Method(http.MethodPost, "/previews", errorMiddleware(editorHandler.mintPreviewHandler))
		r.Method(http.MethodDelete, "/previews/{token}", errorMiddleware(editorHandler.revokePreviewHandler))
	})

	return r
}
