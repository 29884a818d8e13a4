package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/lueurxax/wikisynth/internal/core/domain"
)

const errFmtList = "list cache partition %s: %w"

// ListEntries enumerates the articles cached for one language. A missing or
// unusable partition yields an empty list.
func (s *Store) ListEntries(partition string) ([]domain.CachedEntry, error) {
	if !safeElement(partition) {
		return []domain.CachedEntry{}, nil
	}

	dir := filepath.Join(s.root, partition)

	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.CachedEntry{}, nil
		}

		return nil, fmt.Errorf(errFmtList, partition, err)
	}

	entries := make([]domain.CachedEntry, 0, len(infos))

	for _, info := range infos {
		name := info.Name()

		if !info.Mode().IsRegular() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, s.ext) {
			continue
		}

		id := strings.TrimSuffix(name, s.ext)
		if id == "" {
			continue
		}

		entries = append(entries, domain.CachedEntry{
			Identifier: id,
			Location:   filepath.Join(dir, name),
		})
	}

	return entries, nil
}
