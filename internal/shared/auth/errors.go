package auth

import "errors"

var (
	// ErrTokenMissing indicates no bearer token accompanied the request.
	ErrTokenMissing = errors.New("access token missing")

	// ErrTokenInvalid covers bad signatures, malformed tokens, expiry and revocation.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrInsufficientPermission indicates a valid token whose role is not allowed.
	ErrInsufficientPermission = errors.New("insufficient permissions")
)
