package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vidfriends/feedclient/internal/mediatype"
)

// File is a selected file: its name, declared type and a way to read it.
type File struct {
	Name        string
	ContentType string
	Size        int64

	open func() (io.ReadCloser, error)
}

// OpenFile describes the file at path. The content type comes from the
// extension and falls back to sniffing the first bytes.
func OpenFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	ct := mediatype.ByExtension(filepath.Ext(path))
	if ct == "" {
		ct, err = sniff(path)
		if err != nil {
			return File{}, err
		}
	}

	return File{
		Name:        filepath.Base(path),
		ContentType: ct,
		Size:        info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// NewFile wraps in-memory content.
func NewFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Open returns a fresh reader over the file's content.
func (f File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.New("file has no content")
	}
	return f.open()
}

// Stem returns the file name without its extension, with underscores and
// dashes turned into spaces.
func (f File) Stem() string {
	name := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

func sniff(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(fh, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return http.DetectContentType(head[:n]), nil
}
