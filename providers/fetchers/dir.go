package fetchers

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirFetcher reads files relative to a project directory.
type DirFetcher struct {
	Dir string
}

// FileContent reads path (relative to Dir) from disk.
func (d DirFetcher) FileContent(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := filepath.Join(d.Dir, filepath.FromSlash(path))
	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("unable to stat '%s': %w", full, err)
	}
	if info.IsDir() {
		return nil, ErrNotAFile
	}

	b, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("unable to read '%s': %w", full, err)
	}
	return b, nil
}
