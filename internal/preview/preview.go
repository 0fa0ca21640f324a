package preview

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrEmptyName is returned when a preview is requested for an unnamed file.
var ErrEmptyName = errors.New("preview: file name is required")

// Store materialises a short-lived preview of a selected file.
type Store interface {
	Create(ctx context.Context, name, contentType string, r io.Reader) (*Preview, error)
}

// Preview is a handle to a previewable copy of a file. Release frees it and
// may be called any number of times.
type Preview struct {
	URL string

	once    sync.Once
	release func() error
	err     error
}

// New wraps a location and the function that frees it.
func New(url string, release func() error) *Preview {
	return &Preview{URL: url, release: release}
}

// Release frees the underlying resource on the first call and returns the
// same result on every later call.
func (p *Preview) Release() error {
	if p == nil {
		return nil
	}
	p.once.Do(func() {
		if p.release != nil {
			p.err = p.release()
		}
	})
	return p.err
}
