package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/faheemkodi/lms-server/internal/models"
	"github.com/faheemkodi/lms-server/internal/storage"
	"go.uber.org/zap"
)

var dataURLRegex = regexp.MustCompile(`^data:image/(\w+);base64,`)

// Storage defines the object store course media is kept in
type Storage interface {
	// Bucket returns the bucket stamped on stored assets
	Bucket() string

	// Put uploads the object as publicly readable and returns its asset descriptor
	//
	// "key" is the object key, "contentType" its media type and "size" the body length (-1 if unknown).
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (*models.Asset, error)

	// Delete removes the object
	Delete(ctx context.Context, key string) error
}

type mediaService struct {
	storage Storage
	logger  *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(storage Storage, logger *zap.Logger) *mediaService {
	return &mediaService{
		storage: storage,
		logger:  logger,
	}
}

// UploadImage stores a base64 data URL image and returns its asset
func (s *mediaService) UploadImage(ctx context.Context, dataURL string) (*models.Asset, error) {
	if dataURL == "" {
		return nil, errs.New(errs.ErrValidation, "no image")
	}

	match := dataURLRegex.FindStringSubmatch(dataURL)
	if match == nil {
		return nil, errs.New(errs.ErrValidation, "image must be a base64 data URL")
	}
	ext := strings.ToLower(match[1])

	data, err := base64.StdEncoding.DecodeString(dataURL[len(match[0]):])
	if err != nil {
		return nil, errs.New(errs.ErrValidation, "image is not valid base64")
	}
	if len(data) == 0 {
		return nil, errs.New(errs.ErrValidation, "no image")
	}

	key, err := storage.GenerateKey(ext)
	if err != nil {
		return nil, fmt.Errorf("failed to generate object key: %w", err)
	}

	asset, err := s.storage.Put(ctx, key, "image/"+ext, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.logger.Error("failed to upload image", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return asset, nil
}

// RemoveImage deletes a previously uploaded image
func (s *mediaService) RemoveImage(ctx context.Context, asset *models.Asset) error {
	return s.remove(ctx, asset)
}

// UploadVideo stores a lesson video on behalf of the instructor
func (s *mediaService) UploadVideo(ctx context.Context, callerID, instructorID int, contentType string, body io.Reader, size int64) (*models.Asset, error) {
	if callerID != instructorID {
		return nil, errs.New(errs.ErrForbidden, "unauthorized")
	}
	if body == nil {
		return nil, errs.New(errs.ErrValidation, "no video")
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return nil, errs.New(errs.ErrValidation, "file must be a video")
	}

	key, err := storage.GenerateKey(storage.ExtensionFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("failed to generate object key: %w", err)
	}

	asset, err := s.storage.Put(ctx, key, contentType, body, size)
	if err != nil {
		s.logger.Error("failed to upload video", zap.Int("instructorId", instructorID), zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return asset, nil
}

// RemoveVideo deletes a lesson video on behalf of the instructor
func (s *mediaService) RemoveVideo(ctx context.Context, callerID, instructorID int, asset *models.Asset) error {
	if callerID != instructorID {
		return errs.New(errs.ErrForbidden, "unauthorized")
	}
	return s.remove(ctx, asset)
}

func (s *mediaService) remove(ctx context.Context, asset *models.Asset) error {
	if asset == nil || asset.Key == "" {
		return errs.New(errs.ErrValidation, "bucket and key are required")
	}
	if asset.Bucket != s.storage.Bucket() {
		return errs.New(errs.ErrValidation, "unknown bucket %q", asset.Bucket)
	}

	if err := s.storage.Delete(ctx, asset.Key); err != nil {
		s.logger.Error("failed to delete object", zap.String("key", asset.Key), zap.Error(err))
		return err
	}

	return nil
}
