package workshop

import "errors"

// Failure kinds surfaced by workshop operations. Handlers map these to HTTP
// statuses with errors.Is; anything not matching is a store failure.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrInvalidMechanic   = errors.New("invalid mechanic")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvoiceExists     = errors.New("invoice already exists for job card")
)
