package handlers

import (
	"context"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/kitbazar/kitbazar/internal/auth"
	"github.com/kitbazar/kitbazar/internal/logging"
	"github.com/kitbazar/kitbazar/internal/observability"
)

type adminContextKey struct{}

// RequireAdmin rejects requests without a valid admin bearer token.
func (h *Handlers) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		meter := observability.MeterFromContext(ctx)

		raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			meter.Count("admin.auth.rejected", 1, sentry.WithAttributes(attribute.String("reason", "missing_token")))
			w.Header().Set("WWW-Authenticate", `Bearer realm="kitbazar"`)
			h.writeError(ctx, w, http.StatusUnauthorized, codeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := h.tokens.Verify(raw)
		if err != nil {
			meter.Count("admin.auth.rejected", 1, sentry.WithAttributes(attribute.String("reason", "invalid_token")))
			h.loggerFromContext(ctx).Warn("rejected admin token", "error", err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="kitbazar", error="invalid_token"`)
			h.writeError(ctx, w, http.StatusUnauthorized, codeUnauthorized, "Invalid bearer token")
			return
		}

		ctx = logging.With(ctx, h.logger, "admin", claims.Subject)
		ctx = context.WithValue(ctx, adminContextKey{}, claims.Subject)
		meter.SetAttributes(attribute.String("user.id", claims.Subject))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(adminContextKey{}).(string)
	return subject
}
