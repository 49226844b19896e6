package services

import "errors"

// Common service errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("not authorized")
	ErrInvalidState = errors.New("invalid state transition")
	ErrDuplicate    = errors.New("duplicate record")
)
