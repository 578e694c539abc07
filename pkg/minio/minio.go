package minio

import (
	"context"
	"fmt"
	"io"

	"farmavida-master/pkg/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Client = fx.Module("minio.client", fx.Provide(registerStorage))

// ObjectStorage stores attachment blobs and returns the object location.
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

type Storage struct {
	client *minio.Client
	bucket string
}

// registerStorage returns a nil ObjectStorage when MINIO.ENDPOINT is unset.
func registerStorage(lc fx.Lifecycle, c *config.Config) (ObjectStorage, error) {
	if c.Minio.Endpoint == "" {
		zap.L().Info("minio disabled, attachments are not accepted")
		return nil, nil
	}

	client, err := minio.New(c.Minio.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Minio.AccessKey, c.Minio.SecretKey, ""),
		Secure: c.Minio.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	s := &Storage{client: client, bucket: c.Minio.BucketName}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.ensureBucket(ctx)
		},
	})

	zap.L().Info("MinIO client initialized", zap.String("endpoint", c.Minio.Endpoint), zap.String("bucket", c.Minio.BucketName))
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		zap.L().Error("failed to check if bucket exists", zap.String("bucket", s.bucket), zap.Error(err))
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

func (s *Storage) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s", info.Bucket, info.Key), nil
}
