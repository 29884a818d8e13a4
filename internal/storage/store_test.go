package storage

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/platform/config"
)

func newMemStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()

	return New(fs, config.CacheConfig{Dir: "/cache", Extension: ".md", LockDir: t.TempDir()}, nil), fs
}

func TestIdentifierAndKey(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{title: "Albert Einstein", want: "Albert_Einstein"},
		{title: "  Albert   Einstein ", want: "Albert_Einstein"},
		{title: "AC/DC", want: "AC_DC"},
		{title: "Already_Underscored", want: "Already_Underscored"},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, Identifier(tt.title))
		})
	}

	assert.Equal(t, "en/Albert_Einstein", Key("en", "Albert Einstein"))
}

func TestStorePath(t *testing.T) {
	store, _ := newMemStore(t)

	p, err := store.Path("en", "Albert Einstein")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/cache", "en", "Albert_Einstein.md"), p)

	_, err = store.Path("../etc", "passwd")
	require.ErrorIs(t, err, apperrors.ErrInvalidLanguage)

	_, err = store.Path("en", "..")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = store.Path("en", "   ")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStorePutGetRead(t *testing.T) {
	store, fs := newMemStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "en", "Albert Einstein")
	require.ErrorIs(t, err, apperrors.ErrCacheNotFound)

	entry, err := store.Put(ctx, "en", "Albert Einstein", "# Albert Einstein\n")
	require.NoError(t, err)
	assert.Equal(t, "Albert_Einstein", entry.Identifier)
	assert.Equal(t, filepath.Join("/cache", "en", "Albert_Einstein.md"), entry.Location)

	body, err := store.Get(ctx, "en", "Albert_Einstein")
	require.NoError(t, err)
	assert.Equal(t, "# Albert Einstein\n", body)

	body, err = store.Read(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, "# Albert Einstein\n", body)

	_, err = store.Put(ctx, "en", "Albert Einstein", "updated")
	require.NoError(t, err)

	body, err = store.Get(ctx, "en", "Albert Einstein")
	require.NoError(t, err)
	assert.Equal(t, "updated", body)

	infos, err := afero.ReadDir(fs, "/cache/en")
	require.NoError(t, err)
	assert.Len(t, infos, 1, "no temp files should be left behind")
}

func TestListEntries(t *testing.T) {
	store, fs := newMemStore(t)
	ctx := context.Background()

	for _, title := range []string{"Albert Einstein", "Quantum mechanics"} {
		_, err := store.Put(ctx, "en", title, "body")
		require.NoError(t, err)
	}

	require.NoError(t, afero.WriteFile(fs, "/cache/en/.tmp-123", []byte("partial"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/cache/en/.hidden.md", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/cache/en/notes.txt", []byte("x"), 0o644))
	require.NoError(t, fs.MkdirAll("/cache/en/subdir.md", 0o755))

	entries, err := store.ListEntries("en")
	require.NoError(t, err)

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Identifier)
	}

	sort.Strings(ids)
	assert.Equal(t, []string{"Albert_Einstein", "Quantum_mechanics"}, ids)
}

func TestListEntriesMissingOrUnsafePartition(t *testing.T) {
	store, _ := newMemStore(t)

	for _, partition := range []string{"fr", "", "..", "a/b", ".locks"} {
		entries, err := store.ListEntries(partition)
		require.NoError(t, err, partition)
		assert.Equal(t, []domain.CachedEntry{}, entries, partition)
	}
}

func TestLockIsExclusive(t *testing.T) {
	store, _ := newMemStore(t)

	unlock, err := store.Lock(context.Background(), "en", "Albert Einstein")
	require.NoError(t, err)

	other := New(afero.NewMemMapFs(), config.CacheConfig{Dir: "/cache", LockDir: store.lockDir}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = other.Lock(ctx, "en", "Albert Einstein")
	require.ErrorIs(t, err, apperrors.ErrCacheLocked)

	require.NoError(t, unlock())

	unlock, err = other.Lock(context.Background(), "en", "Albert Einstein")
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestLockRejectsUnsafeKey(t *testing.T) {
	store, _ := newMemStore(t)

	_, err := store.Lock(context.Background(), "..", "x")
	require.ErrorIs(t, err, apperrors.ErrInvalidLanguage)
}

func TestNewDefaults(t *testing.T) {
	store := New(afero.NewMemMapFs(), config.CacheConfig{Dir: "/c", Extension: "html"}, nil)

	assert.Equal(t, ".html", store.ext)
	assert.Equal(t, filepath.Join("/c", ".locks"), store.lockDir)
	assert.Equal(t, "/c", store.Root())
	require.NoError(t, store.Ready())
}
