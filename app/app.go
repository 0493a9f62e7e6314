package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/auth"
	"github.com/kitbazar/kitbazar/internal/cache"
	"github.com/kitbazar/kitbazar/internal/cart"
	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/config"
	"github.com/kitbazar/kitbazar/internal/db"
	"github.com/kitbazar/kitbazar/internal/email"
	"github.com/kitbazar/kitbazar/internal/handlers"
	"github.com/kitbazar/kitbazar/internal/logging"
	"github.com/kitbazar/kitbazar/internal/services"
	"github.com/kitbazar/kitbazar/internal/session"
)

const productCacheSize = 1000

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	DB             *pgxpool.Pool
	CacheProvider  cache.Provider
	SessionManager *session.Manager
	Parser         *catalog.Parser
	AdminService   *services.AdminProductService
	Handlers       *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	sentryEnabled := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			EnableTracing:    true,
			TracesSampleRate: cfg.SentryTracesSampleRate,
			EnableLogs:       true,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
		sentryEnabled = true
	}

	logger := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Sentry: sentryEnabled,
	})

	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
		MemorySize:            productCacheSize,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	sessionStore, err := session.NewStore(startupCtx, session.Config{
		Provider:              cfg.SessionStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		database.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	sessionManager := session.NewManager(sessionStore, cfg.SecureCookies(), cfg.SelectionTTL)

	cleanup := func() {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		database.Close()
	}

	tokens, err := auth.NewTokens(cfg.AdminJWTSecret)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize admin tokens: %w", err)
	}

	cartClient, err := newCartClient(cfg, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize cart client: %w", err)
	}

	alerts, err := newLowStockNotifier(cfg, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize low stock alerts: %w", err)
	}

	parser := catalog.NewParser()
	generator := catalog.NewGenerator(catalog.Rules{
		LargeSizeSurcharge:     decimal.NewFromFloat(cfg.LargeSizeSurcharge),
		LegacyPlayerMultiplier: cfg.LegacyPlayerPricing,
	})
	productStore := db.NewProductStore(database, parser)
	badgeStore := db.NewBadgeStore(database)
	inFlight := services.NewInFlight()

	catalogService := services.NewCatalogService(
		productStore,
		badgeStore,
		cacheProvider,
		cfg.ProductCacheTTL,
		logger.With("component", "catalog_service"),
	)
	selectionService := services.NewSelectionService(
		catalogService,
		sessionManager,
		cartClient,
		catalog.NewPricer(),
		inFlight,
		logger.With("component", "selection_service"),
	)
	adminService := services.NewAdminProductService(
		productStore,
		badgeStore,
		catalogService,
		generator,
		catalog.NewValidator(),
		alerts,
		inFlight,
		logger.With("component", "admin_service"),
	)

	h, err := handlers.New(handlers.Dependencies{
		Config:           cfg,
		DB:               database,
		CatalogService:   catalogService,
		SelectionService: selectionService,
		AdminService:     adminService,
		SessionManager:   sessionManager,
		Tokens:           tokens,
		Logger:           logger,
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:         cfg,
		Logger:         logger,
		DB:             database,
		CacheProvider:  cacheProvider,
		SessionManager: sessionManager,
		Parser:         parser,
		AdminService:   adminService,
		Handlers:       h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.SessionManager != nil {
		closeSessionManager(a.Logger, a.SessionManager)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	if a.DB != nil {
		a.DB.Close()
	}
	sentry.Flush(2 * time.Second)
}

func newCartClient(cfg *config.Config, logger *slog.Logger) (services.CartClient, error) {
	if cfg.CartAPIURL == "" {
		logger.Warn("CART_API_URL not set, keeping carts in memory")
		return cart.NewMemoryCart(), nil
	}
	return cart.NewHTTPClient(cfg.CartAPIURL, cfg.CartTimeout, logger.With("component", "cart_client"))
}

func newLowStockNotifier(cfg *config.Config, logger *slog.Logger) (services.LowStockNotifier, error) {
	if !cfg.AlertsEnabled() {
		logger.Info("low stock alerts disabled")
		return nil, nil
	}
	provider := email.NewResendProvider(cfg.ResendAPIKey, cfg.AlertEmailFrom)
	return services.NewEmailLowStockNotifier(provider, cfg.AlertEmailTo, cfg.BaseURL, logger.With("component", "low_stock_alerts"))
}

func closeSessionManager(logger *slog.Logger, manager *session.Manager) {
	if manager == nil {
		return
	}
	if err := manager.Close(); err != nil && logger != nil {
		logger.Warn("failed to close session manager", "error", err)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
