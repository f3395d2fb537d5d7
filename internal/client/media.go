package client

import (
	"Chatwave/internal/chatsync"
	"Chatwave/internal/pkg/util"
	"context"
	"io"
	log "log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FileOpener 按本地路径读取媒体
type FileOpener struct{}

func (FileOpener) Open(_ context.Context, _ chatsync.MessageType, uri string) (io.ReadCloser, int64, error) {
	f, err := os.Open(uri)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open media")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, errors.Wrap(err, "stat media")
	}
	return f, info.Size(), nil
}

// MediaPicker 终端下的相册选择器：图片压缩后落临时文件，音视频用 ffprobe 取元数据
type MediaPicker struct {
	ffprobe string
	tmpDir  string
}

func NewMediaPicker(ffprobe, tmpDir string) *MediaPicker {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &MediaPicker{ffprobe: ffprobe, tmpDir: tmpDir}
}

// PickImage 缩放并重新编码为 JPEG，返回压缩后文件与尺寸
func (s *MediaPicker) PickImage(path string) (chatsync.MediaAsset, error) {
	f, err := os.Open(path)
	if err != nil {
		return chatsync.MediaAsset{}, errors.Wrap(err, "open image")
	}
	defer func() { _ = f.Close() }()

	data, w, h, err := util.PrepareImage(f)
	if err != nil {
		return chatsync.MediaAsset{}, err
	}

	out := filepath.Join(s.tmpDir, "chatwave-"+uuid.NewString()+".jpg")
	if err = os.WriteFile(out, data, 0o600); err != nil {
		return chatsync.MediaAsset{}, errors.Wrap(err, "write prepared image")
	}
	return chatsync.MediaAsset{URI: out, Width: w, Height: h}, nil
}

// PickVideo 读取视频时长与尺寸，探测失败时按 0 处理
func (s *MediaPicker) PickVideo(ctx context.Context, path string) (chatsync.MediaAsset, error) {
	if _, err := os.Stat(path); err != nil {
		return chatsync.MediaAsset{}, errors.Wrap(err, "stat video")
	}
	asset := chatsync.MediaAsset{URI: path, Duration: s.duration(ctx, path)}
	if w, h, err := util.GetDimensions(ctx, s.ffprobe, path); err == nil {
		asset.Width, asset.Height = w, h
	} else {
		log.WarnContext(ctx, "failed to get dimensions via ffprobe", "path", path, "err", err)
	}
	return asset, nil
}

func (s *MediaPicker) duration(ctx context.Context, path string) int {
	d, err := util.GetDuration(ctx, s.ffprobe, path)
	if err != nil {
		log.WarnContext(ctx, "failed to get duration via ffprobe", "path", path, "err", err)
		return 0
	}
	return int(math.Round(d))
}
