// Package storage keeps uploaded course media in an object store
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
)

// LocalBucket is the bucket name reported by the filesystem driver
const LocalBucket = "local"

// localStorage keeps objects as files under basePath, served at baseURL + "/media/"
type localStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates a new localStorage instance
func NewLocalStorage(basePath, baseURL string) (*localStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &localStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Bucket returns the bucket name stamped on stored assets
func (s *localStorage) Bucket() string {
	return LocalBucket
}

// Put writes the object to disk and returns its asset descriptor
func (s *localStorage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*models.Asset, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		// Cleanup: delete the partial file if copy fails
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &models.Asset{
		Bucket:      LocalBucket,
		Key:         key,
		Location:    s.baseURL + "/media/" + key,
		ContentType: contentType,
	}, nil
}

// Delete removes the object file
func (s *localStorage) Delete(ctx context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return errs.New(errs.ErrNotFound, "object not found")
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Dir returns the directory the objects are kept in
func (s *localStorage) Dir() string {
	return s.basePath
}

// path resolves a key to a file inside basePath. Keys are flat file names.
func (s *localStorage) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", errs.New(errs.ErrValidation, "invalid object key")
	}
	return filepath.Join(s.basePath, key), nil
}
