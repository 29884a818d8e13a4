package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	apperrors "github.com/lueurxax/wikisynth/internal/core/errors"
)

const (
	lockRetryDelay = 250 * time.Millisecond
	lockSuffix     = ".lock"

	errFmtLockDir   = "create lock dir: %w"
	errFmtAcquire   = "acquire lock %s: %w"
	errFmtContended = "%w: %s"
)

// Lock takes an exclusive cross-process lock for (language, title), waiting
// until ctx is done. The returned function releases it.
func (s *Store) Lock(ctx context.Context, language, title string) (func() error, error) {
	fileLock, err := s.articleLock(language, title)
	if err != nil {
		return nil, err
	}

	locked, err := fileLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf(errFmtContended, apperrors.ErrCacheLocked, fileLock.Path())
		}

		return nil, fmt.Errorf(errFmtAcquire, fileLock.Path(), err)
	}

	if !locked {
		return nil, fmt.Errorf(errFmtContended, apperrors.ErrCacheLocked, fileLock.Path())
	}

	s.logger.Debug().Str(logKeyPath, fileLock.Path()).Msg("article lock acquired")

	return fileLock.Unlock, nil
}

// articleLock returns the flock for an article. Lock files always live on the
// OS filesystem, whatever afero backend holds the articles.
func (s *Store) articleLock(language, title string) (*flock.Flock, error) {
	if _, err := s.Path(language, title); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.lockDir, dirPerm); err != nil {
		return nil, fmt.Errorf(errFmtLockDir, err)
	}

	return flock.New(filepath.Join(s.lockDir, language+"_"+Identifier(title)+lockSuffix)), nil
}
