package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCatalogUnavailable is returned when the product API cannot serve the catalog
	ErrCatalogUnavailable = errors.New("product catalog unavailable")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrSessionNotFound is returned when a browse session ID is unknown or expired
	ErrSessionNotFound = errors.New("browse session not found")

	// ErrSuperseded is returned when a newer search in the same session started
	// before this one finished
	ErrSuperseded = errors.New("search superseded by a newer request")
)
