package service

import "errors"

// Shared error taxonomy, mapped to HTTP status codes by the api layer:
// validation → 400, authentication → 401, forbidden → 403, not found → 404.
// A resource that exists but fails the caller's visibility predicate surfaces
// as ErrNotFound so existence never leaks.
var (
	ErrValidation           = errors.New("validation failed")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid username or password")
	ErrForbidden            = errors.New("operation not permitted for this user")
	ErrNotFound             = errors.New("resource not found")

	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already taken")
	ErrInvalidAssignee   = errors.New("sweat sheets can only be assigned to athletes")
)
