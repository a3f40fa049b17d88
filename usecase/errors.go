package usecase

import "errors"

// Error kinds surfaced by the auth layer. Handlers translate these to
// HTTP statuses; anything else is an internal error. The invalid
// credentials message is shared between unknown-identifier and
// wrong-password failures so responses cannot be used for user
// enumeration.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account is locked")
	ErrMFARequired        = errors.New("mfa token required")
	ErrInvalidMFA         = errors.New("invalid mfa token")
)
