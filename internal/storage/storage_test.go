package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/faheemkodi/lms-server/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "http://localhost:8000/")
	require.NoError(t, err)

	asset, err := s.Put(context.Background(), "abc.png", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, LocalBucket, asset.Bucket)
	assert.Equal(t, "abc.png", asset.Key)
	assert.Equal(t, "http://localhost:8000/media/abc.png", asset.Location)
	assert.Equal(t, "image/png", asset.ContentType)

	data, err := os.ReadFile(filepath.Join(dir, "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(context.Background(), "abc.png"))
	_, err = os.Stat(filepath.Join(dir, "abc.png"))
	assert.True(t, os.IsNotExist(err))

	err = s.Delete(context.Background(), "abc.png")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestLocalStorage_RejectsUnsafeKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)

	for _, key := range []string{"", "../etc/passwd", "nested/abc.png", ".env"} {
		t.Run(key, func(t *testing.T) {
			err := s.Delete(context.Background(), key)
			assert.ErrorIs(t, err, errs.ErrValidation)

			_, err = s.Put(context.Background(), key, "image/png", strings.NewReader("x"), 1)
			assert.ErrorIs(t, err, errs.ErrValidation)
		})
	}
}

type fakeObjectAPI struct {
	putInput    *s3.PutObjectInput
	putBody     string
	deleteInput *s3.DeleteObjectInput
	err         error
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.putInput = params
	if params.Body != nil {
		b, _ := io.ReadAll(params.Body)
		f.putBody = string(b)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleteInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage_Put(t *testing.T) {
	tests := []struct {
		name             string
		cfg              S3Config
		expectedLocation string
	}{
		{
			name:             "aws",
			cfg:              S3Config{Bucket: "lms-media", Region: "ap-south-1"},
			expectedLocation: "https://lms-media.s3.ap-south-1.amazonaws.com/abc.mp4",
		},
		{
			name:             "custom endpoint",
			cfg:              S3Config{Bucket: "lms-media", Region: "us-east-1", Endpoint: "http://minio:9000/"},
			expectedLocation: "http://minio:9000/lms-media/abc.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeObjectAPI{}
			s := newS3Storage(api, tt.cfg)

			asset, err := s.Put(context.Background(), "abc.mp4", "video/mp4", strings.NewReader("video"), 5)
			require.NoError(t, err)

			assert.Equal(t, tt.expectedLocation, asset.Location)
			assert.Equal(t, "lms-media", asset.Bucket)
			assert.Equal(t, "lms-media", *api.putInput.Bucket)
			assert.Equal(t, "abc.mp4", *api.putInput.Key)
			assert.Equal(t, "video/mp4", *api.putInput.ContentType)
			assert.Equal(t, int64(5), *api.putInput.ContentLength)
			assert.Equal(t, types.ObjectCannedACLPublicRead, api.putInput.ACL)
			assert.Equal(t, "video", api.putBody)
		})
	}
}

func TestS3Storage_Errors(t *testing.T) {
	api := &fakeObjectAPI{err: errors.New("access denied")}
	s := newS3Storage(api, S3Config{Bucket: "lms-media", Region: "us-east-1"})

	_, err := s.Put(context.Background(), "abc.png", "image/png", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, errs.ErrUpstream)

	err = s.Delete(context.Background(), "abc.png")
	assert.ErrorIs(t, err, errs.ErrUpstream)
	assert.Equal(t, "abc.png", *api.deleteInput.Key)
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey("png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Len(t, key, 25)

	other, err := GenerateKey(".png")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
	assert.True(t, strings.HasSuffix(other, ".png"))
	assert.False(t, strings.Contains(other, ".."))

	bare, err := GenerateKey("")
	require.NoError(t, err)
	assert.Len(t, bare, 21)
}

func TestExtensionFromContentType(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":               "jpg",
		"image/PNG":                "png",
		"video/mp4":                "mp4",
		"video/webm; codecs=vp9":   "webm",
		"application/octet-stream": "",
		"":                         "",
	}

	for contentType, expected := range tests {
		assert.Equal(t, expected, ExtensionFromContentType(contentType), contentType)
	}
}
