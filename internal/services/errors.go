package services

import "errors"

// UserError carries a message that is safe to show to the caller.
type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrStaleRevision   = errors.New("selection changed since it was read")
	ErrInFlight        = errors.New("request already in progress")
	ErrCartUnavailable = errors.New("cart unavailable")
	ErrCartRejected    = errors.New("cart rejected item")
)
