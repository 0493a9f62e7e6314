package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kitbazar/kitbazar/internal/models"
	"github.com/kitbazar/kitbazar/internal/services"
	"github.com/kitbazar/kitbazar/internal/session"
)

type fabricRequest struct {
	Fabric   string `json:"fabric" validate:"required"`
	Revision *int64 `json:"revision"`
}

type sizeRequest struct {
	Size     string `json:"size" validate:"required"`
	Revision *int64 `json:"revision"`
}

type variantRequest struct {
	VariantID string `json:"variantId" validate:"required"`
	Revision  *int64 `json:"revision"`
}

type addOnsRequest struct {
	PlayerName   string   `json:"playerName" validate:"max=20"`
	JerseyNumber string   `json:"jerseyNumber" validate:"omitempty,numeric,max=3"`
	BadgeIDs     []string `json:"badgeIds" validate:"max=10"`
	Revision     *int64   `json:"revision"`
}

type cartRequest struct {
	Quantity int    `json:"quantity" validate:"gte=0"`
	BuyNow   bool   `json:"buyNow"`
	Revision *int64 `json:"revision"`
}

func (h *Handlers) GetSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.selectionService.Get(ctx, session.BrowserIDFromContext(ctx), mux.Vars(r)["slug"])
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, view)
}

func (h *Handlers) ResetSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.selectionService.Reset(ctx, session.BrowserIDFromContext(ctx), mux.Vars(r)["slug"])
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, view)
}

func (h *Handlers) ChooseFabric(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req fabricRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	view, err := h.selectionService.ChooseFabric(ctx, session.BrowserIDFromContext(ctx), mux.Vars(r)["slug"], req.Revision, req.Fabric)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, view)
}

func (h *Handlers) ChooseSize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	view, err := h.selectionService.ChooseSize(ctx, session.BrowserIDFromContext(ctx), mux.Vars(r)["slug"], req.Revision, req.Size)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, view)
}

func (h *Handlers) ChooseVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req variantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	view, err := h.selectionService.ChooseVariant(ctx, session.BrowserIDFromContext(ctx), mux.Vars(r)["slug"], req.Revision, req.VariantID)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, view)
}

func (h *Handlers) SetAddOns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addOnsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	view, err := h.selectionService.SetAddOns(ctx, session.BrowserIDFromContext(ctx), mux.Vars(r)["slug"], req.Revision, models.AddOns{
		PlayerName:   req.PlayerName,
		JerseyNumber: req.JerseyNumber,
		BadgeIDs:     req.BadgeIDs,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, view)
}

// AddToCart hands the current selection to the cart. With buyNow the client
// continues straight to checkout.
func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	result, err := h.selectionService.AddToCart(ctx, session.BrowserIDFromContext(ctx), mux.Vars(r)["slug"], services.AddToCartInput{
		Revision: req.Revision,
		Quantity: req.Quantity,
		BuyNow:   req.BuyNow,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, result)
}
