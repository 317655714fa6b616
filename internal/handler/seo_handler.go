package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"sitebuilder/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers. Only published
// pages appear in the sitemap; drafts are invisible here just as on the rest
// of the public surface.
type SeoHandler struct {
	reader  *service.ReaderService
	baseURL string
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public origin of
// the site, e.g. "https://example.com".
func NewSeoHandler(reader *service.ReaderService, baseURL string) *SeoHandler {
	return &SeoHandler{reader: reader, baseURL: baseURL}
}

// robotsHandler serves a static robots.txt file.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.baseURL)
}

const sitemapDateFormat = "2006-01-02"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler generates and serves a dynamic sitemap.xml.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	pages, err := h.reader.ListPublishedSummaries(r.Context())
	if err != nil {
		http.Error(w, "Failed to retrieve pages for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, len(pages)),
	}

	for i, page := range pages {
		sitemap.URLs[i] = sitemapURL{
			Loc:     fmt.Sprintf("%s/pages/%s", h.baseURL, page.Slug),
			LastMod: page.PublishedAt.Format(sitemapDateFormat),
		}
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		http.Error(w, "Failed to generate sitemap XML", http.StatusInternalServerError)
		return
	}
}
