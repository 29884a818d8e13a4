// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/lueurxax/wikisynth/internal/core/domain"
)

// ArticleIndex lists the cached articles of one language partition.
// A missing partition yields an empty slice and a nil error.
type ArticleIndex interface {
	ListEntries(partition string) ([]domain.CachedEntry, error)
}

// ArticleReader reads cached article bodies.
type ArticleReader interface {
	// Get returns the body cached for (language, title), or errors.ErrCacheNotFound.
	Get(ctx context.Context, language, title string) (string, error)
	// Read returns the body behind an entry produced by an ArticleIndex.
	Read(ctx context.Context, entry domain.CachedEntry) (string, error)
}

// ArticleWriter stores finished article bodies.
type ArticleWriter interface {
	Put(ctx context.Context, language, title, body string) (domain.CachedEntry, error)
}

// ArticleLocker serializes work on one article across processes.
type ArticleLocker interface {
	Lock(ctx context.Context, language, title string) (unlock func() error, err error)
}

// ArticleStore combines the article cache operations.
type ArticleStore interface {
	ArticleIndex
	ArticleReader
	ArticleWriter
	ArticleLocker
}
