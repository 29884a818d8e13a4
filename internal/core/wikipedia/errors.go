package wikipedia

import (
	"errors"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
)

// Error definitions for MediaWiki client operations.
var (
	// ErrArticleNotFound is returned when no edition of the article could be retrieved.
	ErrArticleNotFound = apperrors.ErrArticleNotFound

	// ErrBadRequest is returned when the API rejects the request (HTTP 4xx).
	ErrBadRequest = errors.New("wikipedia bad request")

	// ErrServerError is returned for API internal errors (HTTP 5xx) and throttling (429).
	ErrServerError = errors.New("wikipedia server error")

	// ErrAPIError is returned when the API answers 200 with an error object.
	ErrAPIError = errors.New("wikipedia api error")
)
