package session

import (
	"context"
	"net/http"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const ctxKey contextKey = "browser_id"

// Middleware makes sure every request carries a browser id and exposes it
// through the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := m.EnsureBrowser(w, r)
		r = r.WithContext(WithBrowserID(r.Context(), id))
		next.ServeHTTP(w, r)
	})
}

func WithBrowserID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, id)
}

// BrowserIDFromContext retrieves the browser id stored by Middleware.
func BrowserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey).(string)
	return id
}
