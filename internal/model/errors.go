package model

import "errors"

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidListing     = errors.New("invalid listing data")
	ErrInvalidProfile     = errors.New("invalid profile data")
	ErrInvalidMessage     = errors.New("invalid message")
	ErrTooManyImages      = errors.New("too many images")
	ErrUnsupportedImage   = errors.New("unsupported image")
)

// ValidationError carries a field-level reason and matches its sentinel with errors.Is.
type ValidationError struct {
	Kind   error
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func Invalid(kind error, field, reason string) error {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}
