package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/minio"
	"Chatwave/internal/pkg/redis"
	"context"
	"io"
	log "log/slog"

	"github.com/goccy/go-json"
)

// MediaStore 对象存储及未认领对象的临时索引，field 形如 bucket/object
type MediaStore interface {
	Put(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, bucket, object string) error
	MarkTemp(ctx context.Context, field string, meta *dto.MediaTempMetadata) error
	ClearTemp(ctx context.Context, fields ...string) error
	ListTemp(ctx context.Context) (map[string]*dto.MediaTempMetadata, error)
}

type minioMediaStore struct{}

// NewMinioMediaStore MinIO 存对象，Redis 哈希 media:temp 记录未认领的上传
func NewMinioMediaStore() MediaStore {
	return &minioMediaStore{}
}

func (s *minioMediaStore) Put(ctx context.Context, bucket, object string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := minio.UploadFile(ctx, bucket, object, r, size, contentType)
	if err != nil {
		return "", err
	}
	return minio.GetPublicURL(bucket, key), nil
}

func (s *minioMediaStore) Remove(ctx context.Context, bucket, object string) error {
	return minio.DeleteFile(ctx, bucket, object)
}

func (s *minioMediaStore) MarkTemp(ctx context.Context, field string, meta *dto.MediaTempMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return redis.HSet(ctx, consts.MediaTempKey, field, string(data))
}

func (s *minioMediaStore) ClearTemp(ctx context.Context, fields ...string) error {
	return redis.HDel(ctx, consts.MediaTempKey, fields...)
}

func (s *minioMediaStore) ListTemp(ctx context.Context) (map[string]*dto.MediaTempMetadata, error) {
	all, err := redis.HGetAll(ctx, consts.MediaTempKey)
	if err != nil {
		return nil, err
	}
	res := make(map[string]*dto.MediaTempMetadata, len(all))
	for field, val := range all {
		var meta dto.MediaTempMetadata
		if err = json.Unmarshal([]byte(val), &meta); err != nil {
			log.WarnContext(ctx, "invalid media meta format", "field", field)
			continue
		}
		res[field] = &meta
	}
	return res, nil
}
