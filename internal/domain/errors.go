package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrRateLimited        = errors.New("rate limited")
	ErrProviderFailure    = errors.New("provider failure")
	ErrAllProvidersFailed = errors.New("all providers failed")
	ErrItemTerminal       = errors.New("item already terminal")
	ErrNotRetryable       = errors.New("item not retryable")
)
