package job

import (
	"Chatwave/internal/api/dto"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type memStore struct {
	mu        sync.Mutex
	temp      map[string]*dto.MediaTempMetadata
	removed   []string
	removeErr map[string]error
}

func (s *memStore) Put(context.Context, string, string, io.Reader, int64, string) (string, error) {
	return "", nil
}

func (s *memStore) Remove(_ context.Context, bucket, object string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.removeErr[bucket+"/"+object]; err != nil {
		return err
	}
	s.removed = append(s.removed, bucket+"/"+object)
	return nil
}

func (s *memStore) MarkTemp(_ context.Context, field string, meta *dto.MediaTempMetadata) error {
	s.temp[field] = meta
	return nil
}

func (s *memStore) ClearTemp(_ context.Context, fields ...string) error {
	for _, f := range fields {
		delete(s.temp, f)
	}
	return nil
}

func (s *memStore) ListTemp(context.Context) (map[string]*dto.MediaTempMetadata, error) {
	res := make(map[string]*dto.MediaTempMetadata, len(s.temp))
	for k, v := range s.temp {
		res[k] = v
	}
	return res, nil
}

func TestMediaCleanupRemovesOnlyExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	store := &memStore{
		temp: map[string]*dto.MediaTempMetadata{
			"chat-images/10/old.jpg":  {Bucket: "chat-images", CreatedAt: now.Add(-25 * time.Hour).Unix()},
			"chat-voice/10/fresh.m4a": {Bucket: "chat-voice", CreatedAt: now.Add(-time.Hour).Unix()},
			"chat-video/10/stuck.mp4": {Bucket: "chat-video", CreatedAt: now.Add(-48 * time.Hour).Unix()},
			"garbage":                 {CreatedAt: 0},
		},
		removeErr: map[string]error{"chat-video/10/stuck.mp4": errors.New("minio down")},
	}
	job := NewMediaCleanupJob(store, 24*time.Hour)
	job.now = func() time.Time { return now }

	n := job.RunOnce(context.Background())

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"chat-images/10/old.jpg"}, store.removed)
	assert.Contains(t, store.temp, "chat-voice/10/fresh.m4a")
	assert.Contains(t, store.temp, "chat-video/10/stuck.mp4")
	assert.NotContains(t, store.temp, "chat-images/10/old.jpg")
}
