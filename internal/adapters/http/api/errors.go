package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNoHolder     = errors.New("request carries no holder id")
	ErrRateLimited  = errors.New("rate limit exceeded")
	ErrInvalidQuery = errors.New("invalid query parameter")
)
