package auth

import "errors"

var (
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAmbiguousCredentials = errors.New("credentials match more than one employee")
	ErrSessionNotFound      = errors.New("session not found or expired")
)
