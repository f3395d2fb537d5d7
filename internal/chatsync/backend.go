package chatsync

import (
	"context"
	"io"
	"time"
)

// MessageSource 后端的消息表、已读状态与资料查询
type MessageSource interface {
	// LoadMessages 会话内全部消息，已排除当前用户隐藏的消息，按 created_at 升序
	LoadMessages(ctx context.Context, chatID string) ([]*Message, error)
	InsertMessage(ctx context.Context, draft *Draft) (*Message, error)
	HideMessage(ctx context.Context, messageID string) error
	DeleteMessage(ctx context.Context, messageID string) error
	MarkRead(ctx context.Context, chatID string) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	GetChatTitle(ctx context.Context, chatID string) (string, error)
}

// Uploader 对象存储，返回公开访问 URL
type Uploader interface {
	Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) (string, error)
}

// MediaOpener 读取本地媒体文件
type MediaOpener interface {
	Open(ctx context.Context, kind MessageType, uri string) (io.ReadCloser, int64, error)
}

type FeedEventKind int

const (
	// EventSubscribed 订阅已生效
	EventSubscribed FeedEventKind = iota + 1
	// EventInsert messages 表插入事件，未按会话过滤
	EventInsert
)

type FeedEvent struct {
	Kind    FeedEventKind
	Message *Message
}

// Subscription 实时订阅句柄
type Subscription interface {
	Events() <-chan FeedEvent
	Close() error
}

// Feed 实时变更推送
type Feed interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

type NotificationData struct {
	ChatID      string      `json:"chatId"`
	MessageType MessageType `json:"messageType"`
	SenderName  string      `json:"senderName"`
}

type Notification struct {
	Title string           `json:"title"`
	Body  string           `json:"body"`
	Data  NotificationData `json:"data"`
}

// Notifier 本地通知，尽力而为
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// AppState 应用级状态：当前用户与前台状态
type AppState interface {
	ViewerID() string
	IsActive() bool
}

// Alerter 面向用户的同步提示
type Alerter interface {
	Alert(title, message string)
}

type Permission string

const (
	PermissionMicrophone   Permission = "microphone"
	PermissionMediaLibrary Permission = "media_library"
	PermissionCamera       Permission = "camera"
)

// Permissions 按需申请系统权限
type Permissions interface {
	Request(ctx context.Context, p Permission) (bool, error)
}

// AudioCapture 录音设备
type AudioCapture interface {
	Start(ctx context.Context) error
	// Stop 结束录音并返回本地文件
	Stop(ctx context.Context) (string, error)
}

// Scheduler 周期任务，返回的 stop 用于释放
type Scheduler interface {
	Every(interval time.Duration, fn func()) (stop func(), err error)
}

type Timer interface {
	Stop() bool
}

// Clock 单次延迟回调
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// View 消息列表视图
type View interface {
	ScrollToEnd()
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock 基于 time.AfterFunc 的 Clock
func SystemClock() Clock { return systemClock{} }
