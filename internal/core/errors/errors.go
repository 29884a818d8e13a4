// Package errors holds the sentinel errors shared across wikisynth packages.
//
// Callers compare with errors.Is; producers wrap with fmt.Errorf("...: %w").
// Errors that only one package cares about stay in that package.
package errors

import "errors"

// Provider errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Article retrieval errors.
var (
	// ErrArticleNotFound indicates no Wikipedia article exists for a title and language.
	ErrArticleNotFound = errors.New("article not found")

	// ErrNoLanguageLinks indicates an article has no other language editions.
	ErrNoLanguageLinks = errors.New("article has no language links")
)

// Model output errors.
var (
	// ErrEmptyResponse indicates the model returned no usable text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse indicates a reply could not be parsed into the expected shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// Validation errors.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidLanguage = errors.New("invalid language code")
)

// Cache errors.
var (
	// ErrCacheNotFound indicates no cached article exists for a key.
	ErrCacheNotFound = errors.New("cache entry not found")

	// ErrCacheLocked indicates another process holds the lock for a cache entry.
	ErrCacheLocked = errors.New("cache entry locked")
)
