package middleware

import (
	"context"
	"net/http"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const editorContextKey = contextKey("editor")

// editorSubjectHeader carries the authenticated editor identity set by the
// fronting identity collaborator. Authorization itself happens there, before
// any request reaches this service.
const editorSubjectHeader = "X-Editor-Subject"

// EditorInfo represents the editor identity propagated with a request.
type EditorInfo struct {
	Subject string
}

// GetEditorInfo retrieves the editor information from the request context.
func GetEditorInfo(ctx context.Context) *EditorInfo {
	if info, ok := ctx.Value(editorContextKey).(*EditorInfo); ok {
		return info
	}
	return &EditorInfo{Subject: "anonymous"}
}

// SetEditorInfo adds the editor information to the request context.
func SetEditorInfo(ctx context.Context, info *EditorInfo) context.Context {
	return context.WithValue(ctx, editorContextKey, info)
}

// EditorContext reads the editor identity header into the request context so
// downstream handlers can attribute operations to a subject.
func EditorContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.Header.Get(editorSubjectHeader)
		if subject == "" {
			subject = "anonymous"
		}
		ctx := SetEditorInfo(r.Context(), &EditorInfo{Subject: subject})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
