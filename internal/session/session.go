// Package session keeps each browser's in-progress product selections.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/kitbazar/kitbazar/internal/models"
)

const (
	cookieName = "kitbazar_browser"
	defaultTTL = 24 * time.Hour

	// NoRevision is the expected revision of a selection that is not stored yet.
	NoRevision int64 = -1
)

// ErrConflict means another request stored the selection first.
var ErrConflict = errors.New("selection was changed by another request")

// Data is one browser's selection for one product.
type Data struct {
	Selection models.Selection `json:"selection"`
	UpdatedAt int64            `json:"updated_at"`
}

// Manager issues browser cookies and stores selections per browser and product.
type Manager struct {
	store  Store
	secure bool
	ttl    time.Duration
}

// Store defines the interface for selection storage
type Store interface {
	Get(ctx context.Context, key string) (*Data, bool)
	Set(ctx context.Context, key string, data *Data, ttl time.Duration) error
	// SetIfRevision stores data only while the stored selection still has the
	// expected revision, NoRevision meaning nothing is stored. It returns
	// ErrConflict otherwise.
	SetIfRevision(ctx context.Context, key string, expected int64, data *Data, ttl time.Duration) error
	Delete(ctx context.Context, key string)
	Close() error
}

// NewManager creates a new session manager. A zero ttl uses 24h.
func NewManager(store Store, secure bool, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Manager{
		store:  store,
		secure: secure,
		ttl:    ttl,
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// EnsureBrowser returns the browser id from the request cookie, issuing a new
// one when the request carries none.
func (m *Manager) EnsureBrowser(w http.ResponseWriter, r *http.Request) string {
	if id, ok := BrowserID(r); ok {
		return id
	}

	id := generateBrowserID()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// BrowserID reads the browser id cookie.
func BrowserID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

// Load returns the stored selection for a browser and product.
func (m *Manager) Load(ctx context.Context, browserID, productID string) (*Data, bool) {
	if browserID == "" || productID == "" {
		return nil, false
	}

	data, ok := m.store.Get(ctx, SelectionKey(browserID, productID))
	if !ok {
		return nil, false
	}

	if time.Now().Unix()-data.UpdatedAt > int64(m.ttl.Seconds()) {
		m.store.Delete(ctx, SelectionKey(browserID, productID))
		return nil, false
	}

	return data, true
}

// Save stores the selection and refreshes its expiry.
func (m *Manager) Save(ctx context.Context, browserID, productID string, sel models.Selection) error {
	if browserID == "" || productID == "" {
		return fmt.Errorf("browser and product are required")
	}

	data := &Data{
		Selection: cloneSelection(sel),
		UpdatedAt: time.Now().Unix(),
	}
	if err := m.store.Set(ctx, SelectionKey(browserID, productID), data, m.ttl); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// SaveIfUnchanged stores the selection only when the stored revision is still
// expected, so two requests that read the same revision cannot both win.
func (m *Manager) SaveIfUnchanged(ctx context.Context, browserID, productID string, expected int64, sel models.Selection) error {
	if browserID == "" || productID == "" {
		return fmt.Errorf("browser and product are required")
	}

	data := &Data{
		Selection: cloneSelection(sel),
		UpdatedAt: time.Now().Unix(),
	}
	err := m.store.SetIfRevision(ctx, SelectionKey(browserID, productID), expected, data, m.ttl)
	if errors.Is(err, ErrConflict) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// Clear drops the stored selection for a browser and product.
func (m *Manager) Clear(ctx context.Context, browserID, productID string) {
	if browserID == "" || productID == "" {
		return
	}
	m.store.Delete(ctx, SelectionKey(browserID, productID))
}

func SelectionKey(browserID, productID string) string {
	return fmt.Sprintf("selection:%s:%s", browserID, productID)
}

func generateBrowserID() string {
	return uuid.NewString()
}

func cloneData(data *Data) *Data {
	if data == nil {
		return nil
	}
	cloned := *data
	cloned.Selection = cloneSelection(data.Selection)
	return &cloned
}

func cloneSelection(sel models.Selection) models.Selection {
	sel.AddOns.BadgeIDs = slices.Clone(sel.AddOns.BadgeIDs)
	return sel
}
