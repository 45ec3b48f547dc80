package domain

import "errors"

// Authentication.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
)

// Token codec. Expiry is reported separately from structural failures so a
// forged token can be told apart from a stale one.
var (
	ErrTokenMalformed    = errors.New("token is malformed")
	ErrTokenBadSignature = errors.New("token signature is invalid")
	ErrTokenExpired      = errors.New("token is expired")
)

// Users.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("username is already taken")
	ErrEmailTaken   = errors.New("email is already taken")
	ErrPhoneTaken   = errors.New("phone number is already taken")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidInput = errors.New("invalid input")
)
