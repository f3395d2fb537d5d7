package minio

import (
	"Chatwave/internal/api/config"
	"context"
	"fmt"
	log "log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	// Client 全局 MinIO 客户端实例
	Client *minio.Client
	cfg    config.MinIOConfig
)

const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

// Init 初始化 MinIO 客户端并确保各存储桶存在且可公开读取
func Init(c config.MinIOConfig, buckets []string) error {
	endpoint, useSSL := c.InternalEndpoint, c.InternalUseSSL
	if endpoint == "" {
		endpoint, useSSL = c.ExternalEndpoint, c.ExternalUseSSL
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.AccessKey, c.SecretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize minio client: %w", err)
	}

	ctx := context.Background()
	if _, err = client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("failed to connect to minio server: %w", err)
	}
	Client = client
	cfg = c

	for _, bucket := range buckets {
		if err = ensureBucket(ctx, bucket); err != nil {
			return err
		}
	}
	return nil
}

func ensureBucket(ctx context.Context, bucket string) error {
	exists, err := Client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err = Client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		log.Info("bucket created", "bucket", bucket)
	}
	if err = Client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
		return fmt.Errorf("set policy on %s: %w", bucket, err)
	}
	return nil
}
