package domain

import "errors"

var (
	// Common domain errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("entity not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionBusy       = errors.New("session is processing another turn")
	ErrAlreadyFinalized  = errors.New("interview already finalized")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
