package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// maxNameAttempts bounds the search for a free file name.
const maxNameAttempts = 100

// FileSystem stores assets below a local media root.
type FileSystem struct {
	root    string
	dir     string
	baseURL string
}

// NewFileSystem creates a filesystem storage writing to root/dir and serving
// URLs below baseURL.
func NewFileSystem(root, dir, baseURL string) *FileSystem {
	return &FileSystem{root: root, dir: dir, baseURL: baseURL}
}

// Root returns the media root directory.
func (fs *FileSystem) Root() string {
	return fs.root
}

// Save writes content to a new file. If the cleaned name is taken, a random
// suffix is appended until a free name is found.
func (fs *FileSystem) Save(ctx context.Context, name string, content io.Reader, contentType string) (string, error) {
	if err := os.MkdirAll(filepath.Join(fs.root, filepath.FromSlash(fs.dir)), 0755); err != nil {
		return "", fmt.Errorf("creating media directory: %w", err)
	}

	candidate := ValidName(name)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		key := path.Join(fs.dir, candidate)
		f, err := os.OpenFile(fs.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			candidate, err = withSuffix(ValidName(name))
			if err != nil {
				return "", err
			}
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", key, err)
		}

		if _, err := io.Copy(f, content); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("writing %s: %w", key, err)
		}
		if err := f.Close(); err != nil {
			os.Remove(f.Name())
			return "", fmt.Errorf("writing %s: %w", key, err)
		}
		return key, nil
	}
	return "", fmt.Errorf("no free name for %q after %d attempts", name, maxNameAttempts)
}

// Open returns the file stored under key.
func (fs *FileSystem) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := fs.safePath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

// Delete removes the file stored under key.
func (fs *FileSystem) Delete(ctx context.Context, key string) error {
	p, err := fs.safePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// URL returns the public URL for key.
func (fs *FileSystem) URL(key string) string {
	return joinURL(fs.baseURL, key)
}

func (fs *FileSystem) path(key string) string {
	return filepath.Join(fs.root, filepath.FromSlash(key))
}

// safePath resolves key below the root, rejecting keys that escape it.
func (fs *FileSystem) safePath(key string) (string, error) {
	p := fs.path(key)
	rel, err := filepath.Rel(fs.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid asset key %q", key)
	}
	return p, nil
}
