// Package cart hands finished selections to the external cart service.
package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kitbazar/kitbazar/internal/logging"
	"github.com/kitbazar/kitbazar/internal/models"
	"github.com/kitbazar/kitbazar/internal/observability"
)

var ErrRejected = errors.New("cart rejected item")

type addItemRequest struct {
	BrowserID string          `json:"browserId"`
	BuyNow    bool            `json:"buyNow"`
	Item      models.CartItem `json:"item"`
}

// HTTPClient posts items to the cart service's addItem endpoint.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("cart base URL must be absolute: %q", baseURL)
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(parsed.String(), "/"),
		httpClient: observability.NewHTTPClient(timeout, baseURL),
		logger:     logger,
	}, nil
}

func (c *HTTPClient) AddItem(ctx context.Context, browserID string, item models.CartItem, buyNow bool) error {
	payload, err := json.Marshal(addItemRequest{BrowserID: browserID, BuyNow: buyNow, Item: item})
	if err != nil {
		return fmt.Errorf("failed to encode cart item: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/items", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create cart request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach cart service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	logging.FromContext(ctx, c.logger).Warn("cart service rejected item",
		"status", resp.StatusCode,
		"product_id", item.ProductID,
		"body", strings.TrimSpace(string(body)),
	)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	return fmt.Errorf("cart service returned status %d", resp.StatusCode)
}

// MemoryCart keeps carts in process memory. It is used when no cart service
// is configured, mostly for local development.
type MemoryCart struct {
	mu    sync.Mutex
	items map[string][]models.CartItem
}

func NewMemoryCart() *MemoryCart {
	return &MemoryCart{items: make(map[string][]models.CartItem)}
}

func (m *MemoryCart) AddItem(_ context.Context, browserID string, item models.CartItem, _ bool) error {
	if browserID == "" {
		return fmt.Errorf("%w: browser id is required", ErrRejected)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[browserID] = append(m.items[browserID], item)
	return nil
}

func (m *MemoryCart) Items(browserID string) []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]models.CartItem, len(m.items[browserID]))
	copy(items, m.items[browserID])
	return items
}
