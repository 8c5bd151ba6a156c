// Package assets stores uploaded binary files outside the relational database.
// Records keep only the storage key returned by Save.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/hmans/larder/internal/config"
)

// ErrNotFound is returned when a key does not exist in the storage.
var ErrNotFound = errors.New("asset not found")

// suffixAlphabet matches the characters a web framework uses for collision suffixes.
const suffixAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const suffixLength = 7

// Storage persists binary assets and resolves their public URLs.
type Storage interface {
	// Save stores the content under a key derived from name and returns the key.
	Save(ctx context.Context, name string, content io.Reader, contentType string) (string, error)
	// Open returns a reader for the asset stored under key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the asset stored under key.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for key.
	URL(key string) string
}

// New creates the storage backend selected by the configuration.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Storage, error) {
	log := logger.WithField("component", "assets")
	sc := cfg.Storage

	switch sc.Backend {
	case config.BackendFileSystem, "":
		log.WithField("root", cfg.MediaRoot()).Debug("using filesystem storage")
		return NewFileSystem(cfg.MediaRoot(), sc.Dir, sc.BaseURL), nil
	case config.BackendS3:
		log.WithField("bucket", sc.Bucket).Debug("using s3 storage")
		s, err := NewS3(ctx, sc)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
}

var invalidNameChars = regexp.MustCompile(`[^-\w.]`)

// ValidName returns a filesystem- and URL-safe version of name: path
// components are dropped, spaces become underscores and anything other than
// letters, digits, dashes, underscores and dots is removed.
func ValidName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = invalidNameChars.ReplaceAllString(name, "")
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	return name
}

// withSuffix inserts a random suffix between the base name and the extension.
func withSuffix(name string) (string, error) {
	suffix, err := gonanoid.Generate(suffixAlphabet, suffixLength)
	if err != nil {
		return "", fmt.Errorf("generating name suffix: %w", err)
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "_" + suffix + ext, nil
}

// joinURL joins a base URL and a key with exactly one slash.
func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
