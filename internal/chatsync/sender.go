package chatsync

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	BucketImages = "chat-images"
	BucketVoice  = "chat-voice"
	BucketVideo  = "chat-video"
)

type mediaKind struct {
	kind        MessageType
	bucket      string
	ext         string
	contentType string
}

var (
	imageMedia = mediaKind{kind: TypeImage, bucket: BucketImages, ext: "jpg", contentType: "image/jpeg"}
	voiceMedia = mediaKind{kind: TypeVoice, bucket: BucketVoice, ext: "m4a", contentType: "audio/m4a"}
	videoMedia = mediaKind{kind: TypeVideo, bucket: BucketVideo, ext: "mp4", contentType: "video/mp4"}
)

// MediaAsset 用户选取的本地媒体
type MediaAsset struct {
	URI      string
	Width    int
	Height   int
	Duration int
}

// Recording 一段已结束的录音
type Recording struct {
	URI      string
	Duration int
}

// Sender 乐观发送：先落本地临时消息，再上传/插入，失败回滚
type Sender struct {
	chatID   string
	store    *Store
	source   MessageSource
	uploader Uploader
	opener   MediaOpener
	app      AppState
	alerter  Alerter
	perms    Permissions
	now      func() time.Time
}

type SenderDeps struct {
	Store       *Store
	Source      MessageSource
	Uploader    Uploader
	Opener      MediaOpener
	App         AppState
	Alerter     Alerter
	Permissions Permissions
}

func NewSender(chatID string, deps SenderDeps) *Sender {
	return &Sender{
		chatID:   chatID,
		store:    deps.Store,
		source:   deps.Source,
		uploader: deps.Uploader,
		opener:   deps.Opener,
		app:      deps.App,
		alerter:  deps.Alerter,
		perms:    deps.Permissions,
		now:      time.Now,
	}
}

// send 单次发送尝试
type send struct {
	content        string
	pendingContent string
	pendingBody    Body
	media          *mediaKind
	uri            string
	// final 根据上传得到的 URL 生成最终的消息体
	final func(url string) Body
}

// SendText 发送文本，空白内容直接忽略
func (s *Sender) SendText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.dispatch(ctx, &send{
		content:        text,
		pendingContent: text,
		pendingBody:    TextBody{},
		final:          func(string) Body { return TextBody{} },
	})
}

func (s *Sender) SendImage(ctx context.Context, asset MediaAsset) error {
	if err := s.require(ctx, PermissionMediaLibrary, "Please grant camera roll permissions to send images."); err != nil {
		return err
	}
	return s.dispatch(ctx, &send{
		content:        "Image",
		pendingContent: "Uploading image...",
		pendingBody:    ImageBody{URL: asset.URI, Width: asset.Width, Height: asset.Height},
		media:          &imageMedia,
		uri:            asset.URI,
		final: func(url string) Body {
			return ImageBody{URL: url, Width: asset.Width, Height: asset.Height}
		},
	})
}

func (s *Sender) SendVoice(ctx context.Context, rec Recording) error {
	label := fmt.Sprintf("Voice %ds", rec.Duration)
	return s.dispatch(ctx, &send{
		content:        label,
		pendingContent: label,
		pendingBody:    VoiceBody{URL: rec.URI, Duration: rec.Duration},
		media:          &voiceMedia,
		uri:            rec.URI,
		final: func(url string) Body {
			return VoiceBody{URL: url, Duration: rec.Duration}
		},
	})
}

func (s *Sender) SendVideo(ctx context.Context, asset MediaAsset) error {
	if err := s.require(ctx, PermissionMediaLibrary, "Please grant camera roll permissions to send videos."); err != nil {
		return err
	}
	return s.dispatch(ctx, &send{
		content:        fmt.Sprintf("Video %ds", asset.Duration),
		pendingContent: "Uploading video...",
		pendingBody:    VideoBody{URL: asset.URI, Duration: asset.Duration},
		media:          &videoMedia,
		uri:            asset.URI,
		final: func(url string) Body {
			return VideoBody{URL: url, Duration: asset.Duration}
		},
	})
}

func (s *Sender) dispatch(ctx context.Context, p *send) error {
	viewer := s.app.ViewerID()
	if viewer == "" {
		s.alert(ErrNotSignedIn)
		return ErrNotSignedIn
	}

	// 发送不随会话关闭而中断
	ctx = context.WithoutCancel(ctx)

	tempID := NewPendingID()
	s.store.Append(&Message{
		ID:        tempID,
		ChatID:    s.chatID,
		AuthorID:  viewer,
		Content:   p.pendingContent,
		Body:      p.pendingBody,
		CreatedAt: s.now(),
	})

	var url string
	if p.media != nil {
		u, err := s.upload(ctx, p.media, p.uri, tempID)
		if err != nil {
			s.store.Remove(tempID)
			err = errors.Wrap(err, "upload failed")
			s.alert(err)
			return err
		}
		url = u
	}

	confirmed, err := s.source.InsertMessage(ctx, &Draft{
		ChatID:   s.chatID,
		AuthorID: viewer,
		Content:  p.content,
		Body:     p.final(url),
	})
	if err != nil {
		s.store.Remove(tempID)
		err = errors.Wrap(err, "send failed")
		s.alert(err)
		return err
	}

	s.store.Replace(tempID, confirmed)
	return nil
}

func (s *Sender) upload(ctx context.Context, kind *mediaKind, uri string, tempID ID) (string, error) {
	rc, size, err := s.opener.Open(ctx, kind.kind, uri)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = rc.Close()
	}()

	path := fmt.Sprintf("%s/%s.%s", s.chatID, tempID.String(), kind.ext)
	url, err := s.uploader.Upload(ctx, kind.bucket, path, rc, size, kind.contentType)
	if err != nil {
		return "", err
	}
	log.DebugContext(ctx, "media uploaded", "bucket", kind.bucket, "path", path)
	return url, nil
}

func (s *Sender) require(ctx context.Context, p Permission, hint string) error {
	if s.perms == nil {
		return nil
	}
	granted, err := s.perms.Request(ctx, p)
	if err != nil || !granted {
		if s.alerter != nil {
			s.alerter.Alert("Permission needed", hint)
		}
		return ErrPermissionDenied
	}
	return nil
}

func (s *Sender) alert(err error) {
	if s.alerter != nil {
		s.alerter.Alert("Error", err.Error())
	}
}
