package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/gorilla/mux"

	"github.com/kitbazar/kitbazar/internal/config"
	"github.com/kitbazar/kitbazar/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           Router(h),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		// Add-to-cart waits on the cart service.
		WriteTimeout:   cfg.CartTimeout + 15*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Router builds the storefront and admin routes.
func Router(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.MetricsContext)
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found","code":"not_found"}` + "\n"))
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	api.HandleFunc("/badges", h.ListBadges).Methods("GET").Name("badges.list")
	api.HandleFunc("/products/{slug}", h.GetProduct).Methods("GET").Name("products.get")

	// Selections are keyed by the browser cookie.
	shop := api.PathPrefix("/products/{slug}/selection").Subrouter()
	shop.Use(h.SessionMiddleware)
	shop.Use(h.RequireSameOrigin)
	shop.HandleFunc("", h.GetSelection).Methods("GET").Name("selection.get")
	shop.HandleFunc("", h.ResetSelection).Methods("DELETE").Name("selection.reset")
	shop.HandleFunc("/fabric", h.ChooseFabric).Methods("POST").Name("selection.fabric")
	shop.HandleFunc("/size", h.ChooseSize).Methods("POST").Name("selection.size")
	shop.HandleFunc("/variant", h.ChooseVariant).Methods("POST").Name("selection.variant")
	shop.HandleFunc("/addons", h.SetAddOns).Methods("PUT").Name("selection.addons")
	shop.HandleFunc("/cart", h.AddToCart).Methods("POST").Name("selection.cart")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.RequireAdmin)
	admin.HandleFunc("/products", h.AdminCreateProduct).Methods("POST").Name("admin.products.create")
	admin.HandleFunc("/products/{id}", h.AdminGetProduct).Methods("GET").Name("admin.products.get")
	admin.HandleFunc("/products/{id}/price", h.AdminUpdateBasePrice).Methods("PUT").Name("admin.products.price")
	admin.HandleFunc("/products/{id}/options/{option}", h.AdminSetOption).Methods("PUT").Name("admin.products.options.set")
	admin.HandleFunc("/products/{id}/options/{option}", h.AdminRemoveOption).Methods("DELETE").Name("admin.products.options.remove")
	admin.HandleFunc("/products/{id}/variants/{variantID}", h.AdminPatchVariant).Methods("PATCH").Name("admin.products.variants.patch")
	admin.HandleFunc("/generator/preview", h.AdminPreviewVariants).Methods("POST").Name("admin.generator.preview")

	return r
}
