package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kitbazar/kitbazar/internal/email"
	"github.com/kitbazar/kitbazar/internal/logging"
)

// LowStockNotifier tells the shop owner that stock dropped to the low-stock
// level.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, alert *email.LowStockAlert) error
}

type noopLowStockNotifier struct{}

func (noopLowStockNotifier) NotifyLowStock(context.Context, *email.LowStockAlert) error {
	return nil
}

// EmailLowStockNotifier renders low-stock alerts and sends them through an
// email provider.
type EmailLowStockNotifier struct {
	provider email.Provider
	renderer *email.Renderer
	to       string
	baseURL  string
	logger   *slog.Logger
}

func NewEmailLowStockNotifier(provider email.Provider, to, baseURL string, logger *slog.Logger) (*EmailLowStockNotifier, error) {
	if provider == nil {
		return nil, fmt.Errorf("email provider is required")
	}
	renderer, err := email.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &EmailLowStockNotifier{
		provider: provider,
		renderer: renderer,
		to:       to,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

func (n *EmailLowStockNotifier) NotifyLowStock(ctx context.Context, alert *email.LowStockAlert) error {
	if alert.AdminURL == "" && n.baseURL != "" {
		alert.AdminURL = n.baseURL + "/api/admin/products/" + alert.ProductID
	}
	msg, err := n.renderer.LowStock(n.to, alert)
	if err != nil {
		return err
	}
	if err := n.provider.SendEmail(ctx, msg); err != nil {
		return err
	}
	logging.FromContext(ctx, n.logger).Info("low stock alert sent",
		"product", alert.ProductSlug,
		"items", len(alert.Items),
	)
	return nil
}
