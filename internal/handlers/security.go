package handlers

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/kitbazar/kitbazar/internal/observability"
)

// SecurityHeaders sets baseline security headers for all responses.
func (h *Handlers) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		headers.Set("Cross-Origin-Resource-Policy", "same-origin")
		headers.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}

// RequireSameOrigin blocks cross-origin writes to cookie-scoped selections.
func (h *Handlers) RequireSameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requestMutatesState(r.Method) {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		meter := observability.MeterFromContext(ctx)
		meter.Count("security.same_origin.checked", 1)

		headers := map[string]string{
			"origin":  strings.TrimSpace(r.Header.Get("Origin")),
			"referer": strings.TrimSpace(r.Header.Get("Referer")),
		}
		if headers["origin"] == "" && headers["referer"] == "" {
			meter.Count("security.same_origin.blocked", 1, sentry.WithAttributes(attribute.String("reason", "missing_origin_and_referer")))
			h.loggerFromContext(ctx).Warn("blocked state-changing request without origin/referrer", "method", r.Method, "path", r.URL.Path)
			h.writeError(ctx, w, http.StatusForbidden, "forbidden", "Forbidden")
			return
		}

		for name, value := range headers {
			if value == "" {
				continue
			}
			if ok, err := h.headerMatchesAllowedHost(value, r); err != nil || !ok {
				meter.Count("security.same_origin.blocked", 1, sentry.WithAttributes(attribute.String("reason", "invalid_"+name)))
				h.loggerFromContext(ctx).Warn("blocked cross-origin state-changing request", name, value, "error", err)
				h.writeError(ctx, w, http.StatusForbidden, "forbidden", "Forbidden")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func requestMutatesState(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func (h *Handlers) headerMatchesAllowedHost(value string, r *http.Request) (bool, error) {
	parsed, err := url.Parse(value)
	if err != nil {
		return false, fmt.Errorf("failed to parse URL: %w", err)
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return false, fmt.Errorf("missing hostname")
	}

	if host == normalizeHost(r.Host) {
		return true, nil
	}
	if h.config != nil && host == hostFromBaseURL(h.config.BaseURL) {
		return true, nil
	}
	return false, nil
}

func normalizeHost(hostport string) string {
	hostport = strings.TrimSpace(hostport)
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return strings.ToLower(host)
	}
	return strings.ToLower(hostport)
}

func hostFromBaseURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
