package auth

import "errors"

var (
	// ErrUnauthenticated is returned when no valid principal is present.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the principal lacks the required capability.
	ErrForbidden = errors.New("insufficient privileges")

	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)
