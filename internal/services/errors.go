// internal/services/errors.go
package services

import "errors"

// Sentinel errors for the permit core. Handlers map these onto HTTP status
// codes; services wrap them with fmt.Errorf("%w: ...") for detail.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAuthorization     = errors.New("not authorized")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
)
