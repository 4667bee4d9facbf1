package services

import "errors"

// Service-level errors. Handlers map these (and the repositories sentinels)
// to HTTP statuses with errors.Is; message text sent to clients never
// includes infrastructure detail.
var (
	// ErrInvalidCredentials covers both "no such user" and "wrong password"
	// so login responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid means the token is malformed or its signature does not
	// verify.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired means the token verified but its expiry has passed.
	// Kept distinct from ErrTokenInvalid for logs; both are unauthenticated
	// to callers.
	ErrTokenExpired = errors.New("token has expired")
	// ErrHashing means the password hasher itself failed. Infrastructure
	// class, not retried.
	ErrHashing = errors.New("failed to hash password")
)
