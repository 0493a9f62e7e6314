package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kitbazar/kitbazar/internal/catalog"
	"github.com/kitbazar/kitbazar/internal/services"
)

const (
	codeInvalidRequest  = "invalid_request"
	codeNotFound        = "not_found"
	codeStaleRevision   = "stale_revision"
	codeInFlight        = "in_flight"
	codeCartUnavailable = "cart_unavailable"
	codeCartRejected    = "cart_rejected"
	codeUnauthorized    = "unauthorized"
	codeInternal        = "internal_error"
)

var requestValidator = validator.New(validator.WithRequiredStructEnabled())

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handlers) writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.loggerFromContext(ctx).Warn("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(ctx, w, status, errorResponse{Error: message, Code: code})
}

// writeServiceError maps service and domain errors onto HTTP statuses.
func (h *Handlers) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var selErr *catalog.SelectionError
	var userErr services.UserError

	switch {
	case errors.As(err, &selErr):
		h.writeError(ctx, w, http.StatusUnprocessableEntity, string(selErr.Code), selErr.Message)
	case errors.As(err, &userErr):
		h.writeError(ctx, w, http.StatusUnprocessableEntity, codeInvalidRequest, userErr.Message)
	case errors.Is(err, catalog.ErrUnpriceable):
		h.writeError(ctx, w, http.StatusUnprocessableEntity, codeInvalidRequest, "Selection cannot be priced")
	case errors.Is(err, services.ErrProductNotFound):
		h.writeError(ctx, w, http.StatusNotFound, codeNotFound, "Product not found")
	case errors.Is(err, services.ErrVariantNotFound):
		h.writeError(ctx, w, http.StatusNotFound, codeNotFound, "Variant not found")
	case errors.Is(err, services.ErrStaleRevision):
		h.writeError(ctx, w, http.StatusConflict, codeStaleRevision, "Selection changed, please refresh")
	case errors.Is(err, services.ErrInFlight):
		h.writeError(ctx, w, http.StatusConflict, codeInFlight, "Request already in progress")
	case errors.Is(err, services.ErrCartRejected):
		h.writeError(ctx, w, http.StatusUnprocessableEntity, codeCartRejected, "The cart did not accept this item")
	case errors.Is(err, services.ErrCartUnavailable):
		h.writeError(ctx, w, http.StatusBadGateway, codeCartUnavailable, "Could not add to cart, please try again")
	default:
		h.loggerFromContext(ctx).Error("request failed", "error", err)
		h.writeError(ctx, w, http.StatusInternalServerError, codeInternal, "Internal error")
	}
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := requestValidator.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(messages, "; "))
}
