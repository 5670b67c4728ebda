// Package storage archives processed nameplate images in S3-compatible
// object storage so extractions can be re-audited against the source photo.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ImageArchive stores processed images keyed by their content digest.
type ImageArchive interface {
	Archive(ctx context.Context, digest string, content []byte, contentType string) error
	PresignGet(ctx context.Context, digest string, expiry time.Duration) (string, error)
}

// MinioArchive implements ImageArchive for MinIO/S3 compatible storage.
type MinioArchive struct {
	client *minio.Client
	bucket string
}

// NewMinioArchive connects to MinIO and ensures the bucket exists.
func NewMinioArchive(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioArchive{client: client, bucket: bucket}, nil
}

func objectKey(digest string) string {
	return "nameplates/" + digest + ".jpg"
}

// Archive uploads a processed image. Re-archiving the same digest overwrites
// the identical object, so duplicate uploads are harmless.
func (m *MinioArchive) Archive(ctx context.Context, digest string, content []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectKey(digest),
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// PresignGet generates a pre-signed GET URL for an archived image.
func (m *MinioArchive) PresignGet(ctx context.Context, digest string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectKey(digest), expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return url.String(), nil
}
