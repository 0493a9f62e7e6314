package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/models"
)

type productResponse struct {
	Product      *models.Product             `json:"product"`
	Availability catalog.ProductAvailability `json:"availability"`
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.catalogService.ListProducts(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	product, err := h.catalogService.GetProduct(ctx, mux.Vars(r)["slug"])
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, productResponse{
		Product:      product,
		Availability: catalog.Availability(product),
	})
}

func (h *Handlers) ListBadges(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	badges, err := h.catalogService.ListBadges(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, map[string]any{"badges": badges})
}
