package auth

import "errors"

// The closed error set of the session layer. Everything below this boundary
// (store errors aside) is mapped into one of these; the HTTP layer collapses
// the validation failures into a single unauthorized response so a client
// cannot probe which sub-case occurred.
var (
	// ErrInvalidCredentials covers unknown email, a user with no password
	// set, and a password mismatch. Callers must not distinguish them.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingToken is returned when no token was supplied at all.
	ErrMissingToken = errors.New("missing session token")

	// ErrSessionNotFound is returned when no session matches the derived id.
	// The client-held credential should be cleared on this outcome.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when the session exists but is past its
	// expiry. The session is deleted as a side effect and the client-held
	// credential should be cleared.
	ErrSessionExpired = errors.New("session expired")

	// ErrUserNotFound is returned when a session resolves but its owning
	// user record is gone (orphaned session).
	ErrUserNotFound = errors.New("user not found")

	// ErrForbidden is an authorization denial for an authenticated caller.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized is an authorization denial for an absent identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPasswordPolicy is returned by ChangePassword when the new password
	// is too short, unchanged, or the confirmation does not match.
	ErrPasswordPolicy = errors.New("password does not meet policy")
)
