package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// TempStore copies the head of a file into a temporary directory.
type TempStore struct {
	dir   string
	limit int64
}

// NewTempStore writes previews under dir (the system temp dir when empty),
// keeping at most limit bytes of each file. A non-positive limit copies
// whole files.
func NewTempStore(dir string, limit int64) *TempStore {
	return &TempStore{dir: dir, limit: limit}
}

// Create implements Store.
func (s *TempStore) Create(ctx context.Context, name, _ string, r io.Reader) (*Preview, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.dir != "" {
		if err := os.MkdirAll(s.dir, 0o700); err != nil {
			return nil, fmt.Errorf("create preview dir: %w", err)
		}
	}

	f, err := os.CreateTemp(s.dir, "preview-*"+filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("create preview file: %w", err)
	}
	src := r
	if s.limit > 0 {
		src = io.LimitReader(r, s.limit)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write preview: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close preview: %w", err)
	}

	path := f.Name()
	location := (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	return New(location, func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove preview: %w", err)
		}
		return nil
	}), nil
}
