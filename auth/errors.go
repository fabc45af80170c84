package auth

import "errors"

// Error taxonomy raised by the auth core. The HTTP layer maps these to status
// codes; nothing here is HTTP-specific. Store and signing failures are
// returned as-is (wrapped), never folded into one of these values, so a
// timeout can never masquerade as a security decision.
var (
	// ErrInvalidCredentials covers both unknown-user and wrong-password so
	// login failures do not leak which one it was.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrConflict - duplicate email/username on registration, or a role name
	// collision.
	ErrConflict = errors.New("already registered")

	// ErrInvalidToken - refresh/logout/revoke presented a jti that is
	// missing, already revoked, or expired.
	ErrInvalidToken = errors.New("token is invalid or expired")

	// ErrNotFound - the addressed user, role or session does not exist, or
	// does not belong to the requesting user.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized - missing/unparseable bearer token, or a revoked
	// access token.
	ErrUnauthorized = errors.New("missing or invalid access token")

	// ErrForbidden - authenticated but the role tier is too low.
	ErrForbidden = errors.New("insufficient role")
)
