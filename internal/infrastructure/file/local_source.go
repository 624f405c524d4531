package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
)

// LocalSource opens configuration files relative to a base directory.
type LocalSource struct {
	BaseDir string
}

func NewLocalSource(baseDir string) *LocalSource {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalSource{BaseDir: baseDir}
}

func (s *LocalSource) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	_ = ctx

	path := sourcePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, sourcePath)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", path, err)
	}
	return file, nil
}

// LoadAliases layers the alias file over the built-in table. An empty name or
// a missing file yields the built-in table alone.
func (s *LocalSource) LoadAliases(ctx context.Context, name string) (cardname.Aliases, error) {
	defaults := cardname.DefaultAliases()
	if name == "" {
		return defaults, nil
	}

	reader, err := s.Open(ctx, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults, nil
		}
		return cardname.Aliases{}, err
	}
	defer reader.Close()

	custom, err := cardname.LoadAliases(reader)
	if err != nil {
		return cardname.Aliases{}, fmt.Errorf("load aliases %s: %w", name, err)
	}
	return defaults.Merge(custom), nil
}
