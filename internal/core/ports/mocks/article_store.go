package mocks

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/core/ports"
)

// Compile-time interface check.
var _ ports.ArticleStore = (*ArticleStore)(nil)

// ArticleStore is an in-memory ports.ArticleStore keyed by language and identifier.
type ArticleStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
	locks   map[string]bool

	// ListEntriesFn overrides ListEntries when set.
	ListEntriesFn func(partition string) ([]domain.CachedEntry, error)
	// PutFn overrides Put when set.
	PutFn func(ctx context.Context, language, title, body string) (domain.CachedEntry, error)

	ListCalls atomic.Int32
	PutCalls  atomic.Int32
}

// NewArticleStore creates an empty ArticleStore.
func NewArticleStore() *ArticleStore {
	return &ArticleStore{
		entries: make(map[string]map[string]string),
		locks:   make(map[string]bool),
	}
}

// Seed stores a body without counting a Put call.
func (s *ArticleStore) Seed(language, identifier, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries[language] == nil {
		s.entries[language] = make(map[string]string)
	}

	s.entries[language][identifier] = body
}

// ListEntries returns the partition entries sorted by identifier.
func (s *ArticleStore) ListEntries(partition string) ([]domain.CachedEntry, error) {
	s.ListCalls.Add(1)

	if s.ListEntriesFn != nil {
		return s.ListEntriesFn(partition)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.CachedEntry, 0, len(s.entries[partition]))
	for id := range s.entries[partition] {
		result = append(result, domain.CachedEntry{Identifier: id, Location: location(partition, id)})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Identifier < result[j].Identifier })

	return result, nil
}

// Get returns the body for (language, title). Titles are stored as given.
func (s *ArticleStore) Get(_ context.Context, language, title string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.entries[language][title]
	if !ok {
		return "", apperrors.ErrCacheNotFound
	}

	return body, nil
}

// Read returns the body behind entry.
func (s *ArticleStore) Read(_ context.Context, entry domain.CachedEntry) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for lang, items := range s.entries {
		for id, body := range items {
			if location(lang, id) == entry.Location {
				return body, nil
			}
		}
	}

	return "", apperrors.ErrCacheNotFound
}

// Put stores body under (language, title).
func (s *ArticleStore) Put(ctx context.Context, language, title, body string) (domain.CachedEntry, error) {
	s.PutCalls.Add(1)

	if s.PutFn != nil {
		return s.PutFn(ctx, language, title, body)
	}

	s.Seed(language, title, body)

	return domain.CachedEntry{Identifier: title, Location: location(language, title)}, nil
}

// Lock marks (language, title) as locked until unlock is called.
func (s *ArticleStore) Lock(_ context.Context, language, title string) (func() error, error) {
	key := location(language, title)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locks[key] {
		return nil, ErrLocked
	}

	s.locks[key] = true

	return func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.locks, key)

		return nil
	}, nil
}

func location(language, identifier string) string {
	return language + "/" + identifier
}
