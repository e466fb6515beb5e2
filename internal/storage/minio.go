// Package storage keeps user avatars in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"social-service/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MaxAvatarBytes caps a single upload.
const MaxAvatarBytes = 5 << 20

// ExtensionFor returns the object extension for an accepted avatar content type.
func ExtensionFor(contentType string) (string, bool) {
	ext, ok := allowedAvatarTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

type AvatarStore struct {
	client *minio.Client
	bucket string
	scheme string
}

func NewAvatarStore(ctx context.Context, cfg *config.MinIOConfig) (*AvatarStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	slog.Info("Connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)
	return &AvatarStore{client: client, bucket: cfg.Bucket, scheme: scheme}, nil
}

// ObjectName places every upload under the owner's prefix with a fresh name so
// a new avatar never overwrites a cached URL.
func ObjectName(userID, ext string) string {
	return path.Join("avatars", userID, uuid.NewString()+ext)
}

// Upload stores the avatar and returns its public URL.
func (s *AvatarStore) Upload(ctx context.Context, userID string, r io.Reader, size int64, contentType string) (string, error) {
	ext, ok := ExtensionFor(contentType)
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	objectName := ObjectName(userID, ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return fmt.Sprintf("%s://%s/%s/%s", s.scheme, s.client.EndpointURL().Host, s.bucket, objectName), nil
}
