// Package storage implements avatar uploads against MinIO-compatible
// object storage.
package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"contacts_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader accepts file bytes for an owner key and returns a public URL.
type Uploader interface {
	UploadAvatar(ctx context.Context, ownerEmail string, r io.Reader, size int64, contentType string) (string, error)
}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MinIOService implements Uploader using MinIO.
type MinIOService struct {
	client        *minio.Client
	bucket        string
	maxFileSize   int64
	publicBaseURL string
}

// NewMinIOService creates a new MinIO storage service.
func NewMinIOService(cfg config.StorageConfig) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	publicBase := strings.TrimRight(cfg.GetMinIOPublicBaseURL(), "/")
	if publicBase == "" {
		scheme := "http"
		if cfg.GetMinIOUseSSL() {
			scheme = "https"
		}
		publicBase = scheme + "://" + cfg.GetMinIOEndpoint()
	}

	return &MinIOService{
		client:        client,
		bucket:        cfg.GetMinIOBucketAvatars(),
		maxFileSize:   cfg.GetMinIOMaxFileSize(),
		publicBaseURL: publicBase,
	}, nil
}

// EnsureBucketExists creates the avatar bucket if it doesn't exist.
func (s *MinIOService) EnsureBucketExists(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	return nil
}

// UploadAvatar stores the file and returns its public URL. The object key
// embeds a hash of the owner email plus a random suffix so a re-upload never
// overwrites a URL that may still be cached by clients.
func (s *MinIOService) UploadAvatar(ctx context.Context, ownerEmail string, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := extByContentType[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported avatar content type %q", contentType)
	}
	if size <= 0 || size > s.maxFileSize {
		return "", fmt.Errorf("avatar size %d outside allowed range (max %d)", size, s.maxFileSize)
	}

	owner := sha1.Sum([]byte(strings.ToLower(ownerEmail)))
	key := fmt.Sprintf("%s_%s%s", hex.EncodeToString(owner[:])[:16], uuid.New().String()[:8], ext)

	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucket, key), nil
}

// DisabledUploader rejects uploads when no object store is configured.
type DisabledUploader struct{}

func (DisabledUploader) UploadAvatar(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", errors.New("object storage is not configured")
}
