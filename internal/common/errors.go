package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")

	// Account errors.
	ErrorAlreadyExists      = errors.New("already exists")
	ErrorInvalidCredentials = errors.New("invalid email/password")
	ErrorInvalidOTP         = errors.New("invalid otp")
)
