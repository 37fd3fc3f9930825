package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Astemirdum/bookstore/library/internal/errs"
)

// ImagesRoute is the public prefix of stored cover references.
const ImagesRoute = "/books/images/"

var allowedExt = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// FileStore keeps cover images in a local directory under generated names.
type FileStore struct {
	dir      string
	maxBytes int64
}

func NewFileStore(dir string, maxBytes int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create images dir")
	}
	return &FileStore{dir: dir, maxBytes: maxBytes}, nil
}

// Store copies r into the directory and returns the public reference.
// The client filename only contributes its extension.
func (s *FileStore) Store(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExt[ext]; !ok {
		return "", errs.ErrUnsupportedImage
	}
	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create image")
	}
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = errs.ErrImageTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, errs.ErrImageTooLarge) {
			return "", err
		}
		return "", errors.Wrap(err, "write image")
	}
	return ImagesRoute + name, nil
}

// Remove deletes the file behind a reference returned by Store.
func (s *FileStore) Remove(ref string) error {
	path, err := s.Path(strings.TrimPrefix(ref, ImagesRoute))
	if err != nil {
		return err
	}
	return errors.Wrap(os.Remove(path), "remove image")
}

// Path resolves a stored name to a file path. Names with path elements are rejected.
func (s *FileStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", errs.ErrImageNotFound
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", errs.ErrImageNotFound
	}
	return path, nil
}
