package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("inactive user")
	ErrUserExists   = errors.New("username already registered")
	ErrInvalidInput = errors.New("invalid input")
	ErrNotLoggedIn  = errors.New("not logged in")
)
