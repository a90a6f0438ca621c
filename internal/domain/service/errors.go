package service

import "atrium/internal/errors"

// Two-kind taxonomy of the credential and token services. Callers match with errors.Is
// and translate to a transport status; the wrapped context is for logs only.
var (
	// ErrAuthentication covers bad credentials and any malformed, expired or forged token.
	ErrAuthentication = errors.New("authentication failed")

	// ErrInternal covers corrupted stored hashes, bad key material and primitive failures.
	ErrInternal = errors.New("internal credential error")

	// ErrEmptyPassword is returned by Hash when the caller passes an empty password.
	ErrEmptyPassword = errors.New("password must not be empty")
)

// Claim validation failures. They are always reported to callers as ErrAuthentication.
var (
	ErrTokenKindMismatch = errors.New("unexpected token kind")
	ErrClaimMissing      = errors.New("required claim missing")
	ErrSubjectMismatch   = errors.New("subject does not match user_id")
)
