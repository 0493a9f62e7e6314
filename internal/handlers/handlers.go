package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/kitbazar/kitbazar/internal/auth"
	"github.com/kitbazar/kitbazar/internal/config"
	"github.com/kitbazar/kitbazar/internal/logging"
	"github.com/kitbazar/kitbazar/internal/services"
	"github.com/kitbazar/kitbazar/internal/session"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers provides the storefront and admin JSON API.
type Handlers struct {
	config           *config.Config
	db               Pinger
	catalogService   *services.CatalogService
	selectionService *services.SelectionService
	adminService     *services.AdminProductService
	sessionManager   *session.Manager
	tokens           *auth.Tokens
	logger           *slog.Logger
}

type Dependencies struct {
	Config           *config.Config
	DB               Pinger
	CatalogService   *services.CatalogService
	SelectionService *services.SelectionService
	AdminService     *services.AdminProductService
	SessionManager   *session.Manager
	Tokens           *auth.Tokens
	Logger           *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.CatalogService == nil {
		return nil, fmt.Errorf("handlers dependencies: catalogService is required")
	}
	if deps.SelectionService == nil {
		return nil, fmt.Errorf("handlers dependencies: selectionService is required")
	}
	if deps.AdminService == nil {
		return nil, fmt.Errorf("handlers dependencies: adminService is required")
	}
	if deps.SessionManager == nil {
		return nil, fmt.Errorf("handlers dependencies: sessionManager is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("handlers dependencies: tokens are required")
	}

	return &Handlers{
		config:           deps.Config,
		db:               deps.DB,
		catalogService:   deps.CatalogService,
		selectionService: deps.SelectionService,
		adminService:     deps.AdminService,
		sessionManager:   deps.SessionManager,
		tokens:           deps.Tokens,
		logger:           logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

// SessionMiddleware assigns every shopper a browser id cookie and tags the
// request logger with it.
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	tagged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.With(r.Context(), h.logger, "browser_id", session.BrowserIDFromContext(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
	return h.sessionManager.Middleware(tagged)
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}
