package archive

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStore uploads files to a MinIO or other S3-compatible endpoint.
type MinIOStore struct {
	client *minio.Client
	bucket string
}

// NewMinIOStore connects to config.Endpoint with static credentials.
func NewMinIOStore(config Config) (*MinIOStore, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinIOStore{client: client, bucket: config.Bucket}, nil
}

// Put uploads localPath as object.
func (s *MinIOStore) Put(ctx context.Context, object, localPath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, object, localPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", object, err)
	}
	return nil
}

// Close is a no-op; the minio client holds no long-lived resources.
func (s *MinIOStore) Close() error { return nil }
