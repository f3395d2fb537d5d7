package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/repository"
	"context"
	"io"
	log "log/slog"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// 各存储桶允许的 MIME 大类，m4a 录音常被识别为 video/mp4
var bucketMimePrefixes = map[string][]string{
	consts.BucketChatImages: {consts.MimePrefixImage},
	consts.BucketChatVoice:  {consts.MimePrefixAudio, consts.MimePrefixVideo},
	consts.BucketChatVideo:  {consts.MimePrefixVideo},
	consts.BucketAvatars:    {consts.MimePrefixImage},
}

type MediaService interface {
	Upload(ctx context.Context, viewerID uint64, bucket, objectPath string, r io.Reader, size int64, contentType string) (string, error)
	// Claim 消息或资料引用了上传的文件后，从临时索引中移除
	Claim(ctx context.Context, urls ...string) error
}

type mediaServiceImpl struct {
	store    MediaStore
	chatRepo repository.ChatRepo
	now      func() time.Time
}

func NewMediaService(store MediaStore, chatRepo repository.ChatRepo) MediaService {
	return &mediaServiceImpl{
		store:    store,
		chatRepo: chatRepo,
		now:      time.Now,
	}
}

// Upload 校验存储桶与路径后写入对象，返回公开地址
func (s *mediaServiceImpl) Upload(ctx context.Context, viewerID uint64, bucket, objectPath string, r io.Reader, size int64, contentType string) (string, error) {
	prefixes, ok := bucketMimePrefixes[bucket]
	if !ok {
		return "", ErrBucketInvalid
	}
	if !hasAnyPrefix(contentType, prefixes) {
		return "", ErrFileNotSupported
	}

	owner, err := splitObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	if err = s.checkOwner(ctx, viewerID, bucket, owner); err != nil {
		return "", err
	}

	publicURL, err := s.store.Put(ctx, bucket, objectPath, r, size, contentType)
	if err != nil {
		log.ErrorContext(ctx, "MinIO upload failed", "bucket", bucket, "path", objectPath, "err", err)
		return "", UnExpectedError
	}

	meta := &dto.MediaTempMetadata{
		Bucket:    bucket,
		MimeType:  contentType,
		CreatedAt: s.now().Unix(),
	}
	if err = s.store.MarkTemp(ctx, bucket+"/"+objectPath, meta); err != nil {
		log.WarnContext(ctx, "failed to record temp media", "bucket", bucket, "path", objectPath, "err", err)
	}

	log.InfoContext(ctx, "media upload success", "bucket", bucket, "path", objectPath, "type", contentType)
	return publicURL, nil
}

func (s *mediaServiceImpl) Claim(ctx context.Context, urls ...string) error {
	fields := make([]string, 0, len(urls))
	for _, u := range urls {
		if field := TempFieldOf(u); field != "" {
			fields = append(fields, field)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return s.store.ClearTemp(ctx, fields...)
}

func (s *mediaServiceImpl) checkOwner(ctx context.Context, viewerID uint64, bucket, owner string) error {
	if bucket == consts.BucketAvatars {
		if owner != strconv.FormatUint(viewerID, 10) {
			return ErrPathInvalid
		}
		return nil
	}

	chatID, err := strconv.ParseUint(owner, 10, 64)
	if err != nil {
		return ErrPathInvalid
	}
	ok, err := s.chatRepo.IsParticipant(ctx, chatID, viewerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// splitObjectPath 路径必须是 <owner>/<name>
func splitObjectPath(objectPath string) (string, error) {
	owner, name, ok := strings.Cut(objectPath, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", ErrPathInvalid
	}
	if path.Clean(objectPath) != objectPath || strings.HasPrefix(name, ".") {
		return "", ErrPathInvalid
	}
	return owner, nil
}

// TempFieldOf 从公开地址还原 media:temp 的 field，非本站地址返回空
func TempFieldOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	bucket, _, ok := strings.Cut(p, "/")
	if !ok {
		return ""
	}
	if _, known := bucketMimePrefixes[bucket]; !known {
		return ""
	}
	return p
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
