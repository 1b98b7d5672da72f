package model

import "errors"

var (
	// Identity store errors
	ErrIdentityNotFound = errors.New("identity not found")
	ErrProfileNotFound  = errors.New("role profile not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrIDCollision      = errors.New("generated id collided with an existing row")
	ErrMarketNotFound   = errors.New("market not found")
	ErrManagerNotFound  = errors.New("manager not found")
	ErrProfileMismatch  = errors.New("role profile does not match identity role")
	ErrValueTooLong     = errors.New("value exceeds column width")

	// Token errors
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
