// Package common defines shared constants and sentinel errors used across
// the server, client and transport layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound        = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already registered")

	// service specific errors
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorForbidden        = errors.New("inactive user")
	ErrorValidation       = errors.New("validation error")
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// token decode failures, kept distinguishable for logging
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token expired")
)
