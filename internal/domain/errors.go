package domain

import "errors"

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrEmptyToken         = errors.New("token cannot be empty")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidData        = errors.New("invalid data")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("store service unavailable, try again later")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrLineNotFound       = errors.New("product is not in the cart")
	ErrKeyNotFound        = errors.New("key not found")
)
