package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"

	"github.com/kitbazar/kitbazar/internal/cart"
	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/logging"
	"github.com/kitbazar/kitbazar/internal/models"
	"github.com/kitbazar/kitbazar/internal/observability"
	"github.com/kitbazar/kitbazar/internal/session"
)

const maxCartQuantity = 10

type productSource interface {
	GetProduct(ctx context.Context, slug string) (*models.Product, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
}

type selectionStore interface {
	Load(ctx context.Context, browserID, productID string) (*session.Data, bool)
	Save(ctx context.Context, browserID, productID string, sel models.Selection) error
	SaveIfUnchanged(ctx context.Context, browserID, productID string, expected int64, sel models.Selection) error
	Clear(ctx context.Context, browserID, productID string)
}

// CartClient is the external cart's addItem contract.
type CartClient interface {
	AddItem(ctx context.Context, browserID string, item models.CartItem, buyNow bool) error
}

// SelectionView is what the storefront renders for the shopper's current
// selection.
type SelectionView struct {
	Selection    models.Selection  `json:"selection"`
	State        catalog.State     `json:"state"`
	Quote        catalog.Quote     `json:"quote"`
	CanAddToCart bool              `json:"canAddToCart"`
	Missing      string            `json:"missing,omitempty"`
	Advisory     *catalog.Advisory `json:"advisory,omitempty"`
	// Adjusted is set when fresh stock data cleared an earlier choice.
	Adjusted bool `json:"adjusted"`
}

type AddToCartInput struct {
	Revision *int64
	Quantity int
	BuyNow   bool
}

type AddToCartResult struct {
	Item   models.CartItem `json:"item"`
	BuyNow bool            `json:"buyNow"`
}

type SelectionService struct {
	products productSource
	sessions selectionStore
	cart     CartClient
	pricer   *catalog.Pricer
	inFlight *InFlight
	logger   *slog.Logger
}

func NewSelectionService(products productSource, sessions selectionStore, cartClient CartClient, pricer *catalog.Pricer, inFlight *InFlight, logger *slog.Logger) *SelectionService {
	if pricer == nil {
		pricer = catalog.NewPricer()
	}
	if inFlight == nil {
		inFlight = NewInFlight()
	}
	return &SelectionService{
		products: products,
		sessions: sessions,
		cart:     cartClient,
		pricer:   pricer,
		inFlight: inFlight,
		logger:   logger,
	}
}

func (s *SelectionService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// Get returns the browser's selection for the product, re-checked against
// current stock.
func (s *SelectionService) Get(ctx context.Context, browserID, slug string) (*SelectionView, error) {
	loaded, err := s.load(ctx, browserID, slug)
	if err != nil {
		return nil, err
	}
	if loaded.adjusted {
		err := s.commit(ctx, browserID, loaded)
		if errors.Is(err, ErrStaleRevision) {
			// A concurrent write already replaced the stored selection.
			s.loggerFromContext(ctx).Debug("refreshed selection superseded", "slug", slug)
		} else if err != nil {
			return nil, err
		}
	}
	return s.view(loaded.machine, loaded.badges, nil, loaded.adjusted), nil
}

// Reset discards the stored selection and starts over.
func (s *SelectionService) Reset(ctx context.Context, browserID, slug string) (*SelectionView, error) {
	product, err := s.products.GetProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	badges, err := s.products.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	s.sessions.Clear(ctx, browserID, product.ID)

	machine := catalog.Start(product)
	if err := s.sessions.Save(ctx, browserID, product.ID, machine.Selection()); err != nil {
		return nil, err
	}
	return s.view(machine, badges, nil, false), nil
}

func (s *SelectionService) ChooseFabric(ctx context.Context, browserID, slug string, revision *int64, fabric string) (*SelectionView, error) {
	return s.transition(ctx, "choose_fabric", browserID, slug, revision, func(m *catalog.Machine) (*catalog.Advisory, error) {
		return nil, m.ChooseFabric(fabric)
	})
}

func (s *SelectionService) ChooseSize(ctx context.Context, browserID, slug string, revision *int64, size string) (*SelectionView, error) {
	return s.transition(ctx, "choose_size", browserID, slug, revision, func(m *catalog.Machine) (*catalog.Advisory, error) {
		advisory, err := m.ChooseSize(size)
		return &advisory, err
	})
}

func (s *SelectionService) ChooseVariant(ctx context.Context, browserID, slug string, revision *int64, variantID string) (*SelectionView, error) {
	return s.transition(ctx, "choose_variant", browserID, slug, revision, func(m *catalog.Machine) (*catalog.Advisory, error) {
		advisory, err := m.ChooseVariant(variantID)
		return &advisory, err
	})
}

func (s *SelectionService) SetAddOns(ctx context.Context, browserID, slug string, revision *int64, addOns models.AddOns) (*SelectionView, error) {
	return s.transition(ctx, "set_add_ons", browserID, slug, revision, func(m *catalog.Machine) (*catalog.Advisory, error) {
		m.SetAddOns(addOns)
		return nil, nil
	})
}

// AddToCart hands a complete selection to the cart. The stored selection is
// left untouched whether or not the cart accepts the item.
func (s *SelectionService) AddToCart(ctx context.Context, browserID, slug string, input AddToCartInput) (*AddToCartResult, error) {
	span := observability.StartSpan(ctx, "service.selection.add_to_cart", "AddToCart")
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	recordFailure := func(reason string) {
		meter.Count("cart.add.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}
	meter.Count("cart.add.received", 1)

	release, ok := s.inFlight.Acquire("cart:" + browserID + ":" + slug)
	if !ok {
		recordFailure("in_flight")
		return nil, ErrInFlight
	}
	defer release()

	loaded, err := s.load(ctx, browserID, slug)
	if err != nil {
		recordFailure("load_failed")
		return nil, err
	}
	machine, badges := loaded.machine, loaded.badges
	product := machine.Product()
	if loaded.adjusted {
		err := s.commit(ctx, browserID, loaded)
		if errors.Is(err, ErrStaleRevision) {
			recordFailure("stale_revision")
			return nil, err
		}
		if err != nil {
			logger.Warn("failed to save refreshed selection", "error", err)
		}
	}
	if err := checkRevision(input.Revision, machine.Selection()); err != nil {
		recordFailure("stale_revision")
		return nil, err
	}

	if err := machine.CanAddToCart(); err != nil {
		recordFailure("incomplete_selection")
		return nil, err
	}

	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 || quantity > maxCartQuantity {
		recordFailure("invalid_quantity")
		return nil, UserError{Message: fmt.Sprintf("Quantity must be between 1 and %d", maxCartQuantity)}
	}
	sel := machine.Selection()
	if available, limited := selectedStock(product, sel); limited && quantity > available {
		recordFailure("insufficient_stock")
		return nil, &catalog.SelectionError{Code: catalog.CodeOutOfStock, Message: fmt.Sprintf("Only %d left", available)}
	}

	unitPrice, err := s.pricer.ComputePrice(product, badges, sel)
	if err != nil {
		recordFailure("unpriceable")
		return nil, err
	}

	item := models.CartItem{
		ProductID:     product.ID,
		VariantID:     selectedVariantID(product, sel),
		Name:          product.Name,
		Slug:          product.Slug,
		UnitPrice:     unitPrice,
		Quantity:      quantity,
		CustomOptions: machine.CustomOptions(badges),
	}
	if len(product.Images) > 0 {
		item.Image = product.Images[0]
	}

	if err := s.cart.AddItem(ctx, browserID, item, input.BuyNow); err != nil {
		if errors.Is(err, cart.ErrRejected) {
			recordFailure("cart_rejected")
			logger.Warn("cart rejected selection", "product_id", product.ID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrCartRejected, err)
		}
		recordFailure("cart_failed")
		logger.Error("cart unavailable", "product_id", product.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}

	meter.Count("cart.add.succeeded", 1, sentry.WithAttributes(
		attribute.String("category", product.Category.Slug),
		attribute.Bool("buy_now", input.BuyNow),
	))
	logger.Info("selection added to cart",
		"product_id", product.ID,
		"variant_id", item.VariantID,
		"quantity", quantity,
		"unit_price", unitPrice.String(),
		"buy_now", input.BuyNow,
	)
	return &AddToCartResult{Item: item, BuyNow: input.BuyNow}, nil
}

func (s *SelectionService) transition(
	ctx context.Context,
	name string,
	browserID, slug string,
	revision *int64,
	apply func(m *catalog.Machine) (*catalog.Advisory, error),
) (*SelectionView, error) {
	meter := observability.MeterFromContext(ctx)

	loaded, err := s.load(ctx, browserID, slug)
	if err != nil {
		return nil, err
	}
	machine := loaded.machine
	if err := checkRevision(revision, machine.Selection()); err != nil {
		if loaded.adjusted {
			if saveErr := s.commit(ctx, browserID, loaded); saveErr != nil && !errors.Is(saveErr, ErrStaleRevision) {
				s.loggerFromContext(ctx).Warn("failed to save refreshed selection", "error", saveErr)
			}
		}
		return nil, err
	}

	advisory, err := apply(machine)
	if err != nil {
		var selErr *catalog.SelectionError
		if errors.As(err, &selErr) {
			meter.Count("selection.rejected", 1, sentry.WithAttributes(
				attribute.String("transition", name),
				attribute.String("code", string(selErr.Code)),
			))
		}
		return nil, err
	}

	if err := s.commit(ctx, browserID, loaded); err != nil {
		if errors.Is(err, ErrStaleRevision) {
			meter.Count("selection.conflict", 1, sentry.WithAttributes(attribute.String("transition", name)))
		}
		return nil, err
	}
	meter.Count("selection.transition", 1, sentry.WithAttributes(attribute.String("transition", name)))
	if advisory != nil && !advisory.LowStock {
		advisory = nil
	}
	return s.view(machine, loaded.badges, advisory, loaded.adjusted), nil
}

// loadedSelection is a resumed selection together with the revision it had in
// the store, which every write must still find there.
type loadedSelection struct {
	machine  *catalog.Machine
	badges   []models.Badge
	stored   int64
	adjusted bool
}

// load resumes the stored selection (or starts one) against fresh product
// data. adjusted reports whether stock changes altered a stored selection.
func (s *SelectionService) load(ctx context.Context, browserID, slug string) (*loadedSelection, error) {
	if browserID == "" {
		return nil, UserError{Message: "Missing browser session"}
	}
	product, err := s.products.GetProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	badges, err := s.products.ListBadges(ctx)
	if err != nil {
		return nil, err
	}

	data, ok := s.sessions.Load(ctx, browserID, product.ID)
	if !ok {
		return &loadedSelection{machine: catalog.Start(product), badges: badges, stored: session.NoRevision}, nil
	}

	stored := data.Selection.Revision
	machine := catalog.Resume(product, data.Selection)
	return &loadedSelection{
		machine:  machine,
		badges:   badges,
		stored:   stored,
		adjusted: machine.Selection().Revision != stored,
	}, nil
}

// commit stores the machine's selection if nobody else stored one since it
// was loaded. Losing that race is reported as ErrStaleRevision.
func (s *SelectionService) commit(ctx context.Context, browserID string, loaded *loadedSelection) error {
	sel := loaded.machine.Selection()
	err := s.sessions.SaveIfUnchanged(ctx, browserID, loaded.machine.Product().ID, loaded.stored, sel)
	if errors.Is(err, session.ErrConflict) {
		return ErrStaleRevision
	}
	if err != nil {
		return err
	}
	loaded.stored = sel.Revision
	return nil
}

func (s *SelectionService) view(m *catalog.Machine, badges []models.Badge, advisory *catalog.Advisory, adjusted bool) *SelectionView {
	sel := m.Selection()
	view := &SelectionView{
		Selection: sel,
		State:     m.State(),
		Quote:     s.pricer.Quote(m.Product(), badges, sel),
		Advisory:  advisory,
		Adjusted:  adjusted,
	}
	if err := m.CanAddToCart(); err != nil {
		view.Missing = err.Error()
	} else {
		view.CanAddToCart = true
	}
	return view
}

func checkRevision(revision *int64, sel models.Selection) error {
	if revision == nil || *revision == sel.Revision {
		return nil
	}
	return ErrStaleRevision
}

func selectedVariantID(product *models.Product, sel models.Selection) string {
	if sel.VariantID != "" {
		return sel.VariantID
	}
	if variant := product.OptionVariant(sel.Fabric); variant != nil {
		return variant.ID
	}
	return ""
}

// selectedStock returns the stock of the chosen size or variant. limited is
// false for products without variants.
func selectedStock(product *models.Product, sel models.Selection) (stock int, limited bool) {
	if sel.VariantID != "" {
		if variant := product.VariantByID(sel.VariantID); variant != nil {
			return variant.Stock, true
		}
		return 0, false
	}
	if variant := product.OptionVariant(sel.Fabric); variant != nil {
		if entry := variant.SizeEntry(sel.Size); entry != nil {
			return entry.Stock, true
		}
	}
	return 0, false
}
