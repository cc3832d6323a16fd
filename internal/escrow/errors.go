package escrow

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid lookup input")
	ErrNotFound          = errors.New("contract not found")
	ErrValidation        = errors.New("validation failed")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrConflict          = errors.New("conflicting contract state")
	ErrAuthRequired      = errors.New("authentication required")
	ErrPermissionDenied  = errors.New("permission denied")
)
