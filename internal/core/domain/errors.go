package domain

import "errors"

var (
	ErrUnknownRole          = errors.New("unknown role")
	ErrForbidden            = errors.New("access forbidden")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserExists           = errors.New("user already exists")
	ErrRememberTokenExpired = errors.New("remember token expired")
	ErrRememberTokenUnknown = errors.New("remember token not found")
	ErrInvalidHeartbeat     = errors.New("invalid heartbeat")

	// ErrReauthRequired marks a 401/403/JWT failure from the backend; the
	// caller must prompt the user to sign in again.
	ErrReauthRequired = errors.New("re-authentication required")
)
