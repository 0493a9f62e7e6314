package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/services"
)

type basePriceRequest struct {
	BasePrice decimal.Decimal `json:"basePrice"`
}

type optionRequest struct {
	BasePrice decimal.Decimal `json:"basePrice"`
}

type previewRequest struct {
	Category  string                `json:"category" validate:"required,oneof=jersey tracksuit sneaker shorts watch"`
	BasePrice decimal.Decimal       `json:"basePrice"`
	Options   []catalog.OptionPrice `json:"options"`
}

// productID reads the {id} route variable. Product ids are UUIDs, so anything
// else is answered with 404 before it reaches the store.
func (h *Handlers) productID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(r.Context(), w, services.ErrProductNotFound)
		return "", false
	}
	return id.String(), true
}

func (h *Handlers) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CreateProductInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	product, err := h.adminService.Create(ctx, req)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.loggerFromContext(ctx).Info("admin created product", "admin", adminFromContext(ctx), "product_id", product.ID)
	h.writeJSON(ctx, w, http.StatusCreated, product)
}

func (h *Handlers) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.adminService.Get(ctx, id)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, productResponse{
		Product:      product,
		Availability: catalog.Availability(product),
	})
}

func (h *Handlers) AdminUpdateBasePrice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req basePriceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	product, err := h.adminService.UpdateBasePrice(ctx, id, req.BasePrice)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, product)
}

func (h *Handlers) AdminSetOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req optionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	product, err := h.adminService.SetOption(ctx, id, catalog.OptionPrice{
		Option:    vars["option"],
		BasePrice: req.BasePrice,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, product)
}

func (h *Handlers) AdminRemoveOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	product, err := h.adminService.RemoveOption(ctx, id, vars["option"])
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, product)
}

func (h *Handlers) AdminPatchVariant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req services.VariantPatch
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	product, err := h.adminService.PatchVariant(ctx, id, vars["variantID"], req)
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, product)
}

// AdminPreviewVariants shows the matrix a product would be created with.
func (h *Handlers) AdminPreviewVariants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(ctx, w, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}
	variants, err := h.adminService.Preview(req.Category, catalog.GenerateInput{
		BasePrice: req.BasePrice,
		Options:   req.Options,
	})
	if err != nil {
		h.writeServiceError(ctx, w, err)
		return
	}
	h.writeJSON(ctx, w, http.StatusOK, map[string]any{"variants": variants})
}
