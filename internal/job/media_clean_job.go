package job

import (
	"Chatwave/internal/pkg/logger"
	"Chatwave/internal/service"
	"context"
	log "log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaCleanupJob 删除超过 TTL 仍未被消息引用的上传
type MediaCleanupJob struct {
	store service.MediaStore
	ttl   time.Duration
	now   func() time.Time
}

func NewMediaCleanupJob(store service.MediaStore, ttl time.Duration) *MediaCleanupJob {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MediaCleanupJob{store: store, ttl: ttl, now: time.Now}
}

func (s *MediaCleanupJob) Run() {
	traceID := "job-media-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)
	s.RunOnce(ctx)
}

// RunOnce 返回本次清理的对象数
func (s *MediaCleanupJob) RunOnce(ctx context.Context) int {
	log.InfoContext(ctx, "start media cleanup job")

	all, err := s.store.ListTemp(ctx)
	if err != nil {
		log.ErrorContext(ctx, "failed to get media temp hash", "err", err)
		return 0
	}

	deadline := s.now().Add(-s.ttl).Unix()
	count := 0

	for field, meta := range all {
		if meta.CreatedAt > deadline {
			continue
		}
		bucket, object, ok := strings.Cut(field, "/")
		if !ok {
			log.WarnContext(ctx, "invalid media temp field", "field", field)
			continue
		}

		if err = s.store.Remove(ctx, bucket, object); err != nil {
			log.ErrorContext(ctx, "failed to delete expired file from minio", "field", field, "err", err)
			continue
		}
		if err = s.store.ClearTemp(ctx, field); err != nil {
			log.ErrorContext(ctx, "failed to remove media token from redis", "field", field, "err", err)
		}

		count++
		log.InfoContext(ctx, "cleanup expired media resource", "field", field, "mime", meta.MimeType)
	}

	if count > 0 {
		log.InfoContext(ctx, "media cleanup job finished", "cleaned_count", count)
	}
	return count
}
