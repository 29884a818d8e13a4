// Package storage keeps synthesized articles on disk.
//
// Articles live under <root>/<language>/<Title_With_Underscores><ext>. The
// filesystem is reached through afero so tests can run against memory. Writes
// go to a temp file first and are renamed into place, so readers and the
// cache index never see a half-written article. Cross-process locks use flock
// files under a separate lock directory.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/lueurxax/wikisynth/internal/core/domain"
	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
	"github.com/lueurxax/wikisynth/internal/core/ports"
	"github.com/lueurxax/wikisynth/internal/platform/config"
	"github.com/lueurxax/wikisynth/internal/platform/observability"
)

const (
	defaultExtension = ".md"
	tempPrefix       = ".tmp-"
	dirPerm          = 0o755
	filePerm         = 0o644

	errFmtCreateDir = "create cache dir %s: %w"
	errFmtTempFile  = "create temp file: %w"
	errFmtWrite     = "write cache file: %w"
	errFmtRename    = "rename %s: %w"
	errFmtRead      = "read %s: %w"
	errFmtKey       = "%w: %q"

	logKeyPath     = "path"
	logKeyLanguage = "language"
	logKeyTitle    = "title"
)

// Store is a filesystem-backed article cache.
type Store struct {
	fs      afero.Fs
	root    string
	ext     string
	lockDir string
	logger  *zerolog.Logger
}

var _ ports.ArticleStore = (*Store)(nil)

// New creates a Store rooted at cfg.Dir on fs.
func New(fs afero.Fs, cfg config.CacheConfig, logger *zerolog.Logger) *Store {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	ext := cfg.Extension
	if ext == "" {
		ext = defaultExtension
	}

	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lockDir := cfg.LockDir
	if lockDir == "" {
		lockDir = filepath.Join(cfg.Dir, ".locks")
	}

	return &Store{
		fs:      fs,
		root:    cfg.Dir,
		ext:     ext,
		lockDir: lockDir,
		logger:  logger,
	}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Identifier turns a title into its cache identifier: spaces become
// underscores and path separators are replaced so the key stays one element.
func Identifier(title string) string {
	id := strings.TrimSpace(title)
	id = strings.Join(strings.Fields(id), "_")

	return strings.NewReplacer("/", "_", "\\", "_").Replace(id)
}

// Key returns the "<language>/<identifier>" key for an article.
func Key(language, title string) string {
	return path.Join(language, Identifier(title))
}

// Path returns the file path for (language, title), or an error when either
// part cannot be used as a single path element.
func (s *Store) Path(language, title string) (string, error) {
	if !safeElement(language) {
		return "", fmt.Errorf(errFmtKey, apperrors.ErrInvalidLanguage, language)
	}

	id := Identifier(title)
	if !safeElement(id) {
		return "", fmt.Errorf(errFmtKey, apperrors.ErrInvalidInput, title)
	}

	return filepath.Join(s.root, language, id+s.ext), nil
}

// Get returns the cached body for (language, title).
func (s *Store) Get(_ context.Context, language, title string) (string, error) {
	p, err := s.Path(language, title)
	if err != nil {
		return "", err
	}

	return s.readFile(p)
}

// Read returns the body behind an index entry.
func (s *Store) Read(_ context.Context, entry domain.CachedEntry) (string, error) {
	return s.readFile(entry.Location)
}

// Put writes body for (language, title) atomically and returns its entry.
func (s *Store) Put(_ context.Context, language, title, body string) (domain.CachedEntry, error) {
	p, err := s.Path(language, title)
	if err != nil {
		return domain.CachedEntry{}, err
	}

	dir := filepath.Dir(p)
	if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
		return domain.CachedEntry{}, fmt.Errorf(errFmtCreateDir, dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, tempPrefix+"*")
	if err != nil {
		return domain.CachedEntry{}, fmt.Errorf(errFmtTempFile, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.WriteString(body); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)

		return domain.CachedEntry{}, fmt.Errorf(errFmtWrite, err)
	}

	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return domain.CachedEntry{}, fmt.Errorf(errFmtWrite, err)
	}

	if err := s.fs.Chmod(tmpName, filePerm); err != nil {
		s.logger.Debug().Err(err).Str(logKeyPath, tmpName).Msg("chmod cache file")
	}

	if err := s.fs.Rename(tmpName, p); err != nil {
		_ = s.fs.Remove(tmpName)
		return domain.CachedEntry{}, fmt.Errorf(errFmtRename, p, err)
	}

	observability.CacheEntriesWritten.WithLabelValues(language).Inc()
	s.logger.Info().Str(logKeyLanguage, language).Str(logKeyTitle, title).Str(logKeyPath, p).Msg("article cached")

	return domain.CachedEntry{Identifier: Identifier(title), Location: p}, nil
}

// Ready reports whether the cache root exists or can be created.
func (s *Store) Ready() error {
	if err := s.fs.MkdirAll(s.root, dirPerm); err != nil {
		return fmt.Errorf(errFmtCreateDir, s.root, err)
	}

	return nil
}

func (s *Store) readFile(p string) (string, error) {
	data, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.ErrCacheNotFound
		}

		return "", fmt.Errorf(errFmtRead, p, err)
	}

	return string(data), nil
}

// safeElement reports whether name is usable as one path element.
func safeElement(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}
