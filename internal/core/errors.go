package core

import "errors"

// Category sentinels for the billing domain. Entity-specific errors (for
// example ErrContractNotFound) wrap one of these, so callers can branch on
// the category with errors.Is without knowing every concrete error.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("conflict")
	ErrExternal     = errors.New("external collaborator failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden operation")
)
