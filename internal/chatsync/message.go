package chatsync

import (
	"time"

	"github.com/google/uuid"
)

// MessageType 消息类型
type MessageType string

const (
	TypeText   MessageType = "text"
	TypeImage  MessageType = "image"
	TypeVoice  MessageType = "voice"
	TypeVideo  MessageType = "video"
	TypeSystem MessageType = "system"
	TypeAgent  MessageType = "agent"
)

// ID 消息标识：Pending(tempId) 或 Confirmed(serverId)
type ID struct {
	value   string
	pending bool
}

// PendingID 本地生成的临时标识
func PendingID(tempID string) ID {
	return ID{value: tempID, pending: true}
}

// ConfirmedID 服务端分配的永久标识
func ConfirmedID(serverID string) ID {
	return ID{value: serverID}
}

// NewPendingID 生成不会碰撞的临时标识
func NewPendingID() ID {
	return PendingID(uuid.NewString())
}

func (id ID) IsPending() bool { return id.pending }

func (id ID) IsZero() bool { return id.value == "" }

func (id ID) String() string { return id.value }

// Body 按 MessageType 区分的消息体
type Body interface {
	Type() MessageType
}

type TextBody struct{}

type ImageBody struct {
	URL    string
	Width  int
	Height int
}

type VoiceBody struct {
	URL      string
	Duration int
}

type VideoBody struct {
	URL      string
	Duration int
}

type SystemBody struct{}

type AgentBody struct {
	AgentID     string
	ExecutionID string
}

func (TextBody) Type() MessageType   { return TypeText }
func (ImageBody) Type() MessageType  { return TypeImage }
func (VoiceBody) Type() MessageType  { return TypeVoice }
func (VideoBody) Type() MessageType  { return TypeVideo }
func (SystemBody) Type() MessageType { return TypeSystem }
func (AgentBody) Type() MessageType  { return TypeAgent }

// BodyFields 线上扁平字段，仅用于构造 Body
type BodyFields struct {
	ImageURL      string
	ImageWidth    int
	ImageHeight   int
	VoiceURL      string
	VoiceDuration int
	VideoURL      string
	VideoDuration int
	AgentID       string
	ExecutionID   string
}

// BodyFor 根据类型从扁平字段构造对应的 Body，未知类型按文本处理
func BodyFor(t MessageType, f BodyFields) Body {
	switch t {
	case TypeImage:
		return ImageBody{URL: f.ImageURL, Width: f.ImageWidth, Height: f.ImageHeight}
	case TypeVoice:
		return VoiceBody{URL: f.VoiceURL, Duration: f.VoiceDuration}
	case TypeVideo:
		return VideoBody{URL: f.VideoURL, Duration: f.VideoDuration}
	case TypeSystem:
		return SystemBody{}
	case TypeAgent:
		return AgentBody{AgentID: f.AgentID, ExecutionID: f.ExecutionID}
	default:
		return TextBody{}
	}
}

// FieldsOf 将 Body 展开为扁平字段
func FieldsOf(b Body) BodyFields {
	switch v := b.(type) {
	case ImageBody:
		return BodyFields{ImageURL: v.URL, ImageWidth: v.Width, ImageHeight: v.Height}
	case VoiceBody:
		return BodyFields{VoiceURL: v.URL, VoiceDuration: v.Duration}
	case VideoBody:
		return BodyFields{VideoURL: v.URL, VideoDuration: v.Duration}
	case AgentBody:
		return BodyFields{AgentID: v.AgentID, ExecutionID: v.ExecutionID}
	default:
		return BodyFields{}
	}
}

// Profile 作者资料
type Profile struct {
	ID          string
	DisplayName string
	Phone       string
	AvatarURL   string
}

// Name 展示名，缺省时回退到手机号
func (p *Profile) Name() string {
	if p == nil {
		return ""
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Phone
}

// Message 会话中的一条消息
type Message struct {
	ID        ID
	ChatID    string
	AuthorID  string
	Content   string
	Body      Body
	CreatedAt time.Time
	Reactions string
	Author    *Profile
}

// Type 消息类型，Body 为空时视为文本
func (m *Message) Type() MessageType {
	if m.Body == nil {
		return TypeText
	}
	return m.Body.Type()
}

// Draft 发往服务端的插入请求
type Draft struct {
	ChatID   string
	AuthorID string
	Content  string
	Body     Body
}
