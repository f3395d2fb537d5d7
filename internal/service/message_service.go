package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/model"
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/realtime"
	"Chatwave/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"
)

// MessageService 消息收发、隐藏、删除与已读
type MessageService interface {
	ListMessages(ctx context.Context, viewerID, chatID uint64) ([]*dto.MessageDTO, error)
	SendMessage(ctx context.Context, viewerID, chatID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	HideMessage(ctx context.Context, viewerID, messageID uint64) error
	DeleteMessage(ctx context.Context, viewerID, messageID uint64) error
	MarkRead(ctx context.Context, viewerID, chatID uint64) error
	AddReaction(ctx context.Context, viewerID, messageID uint64, emoji string) (*dto.MessageDTO, error)
	// Deliver 写入一条已构造好的消息并推送，供系统与智能体消息使用
	Deliver(ctx context.Context, msg *model.Message) (*dto.MessageDTO, error)
}

type messageServiceImpl struct {
	messageRepo repository.MessageRepo
	chatRepo    repository.ChatRepo
	profileRepo repository.ProfileRepo
	media       MediaService
	publisher   realtime.Publisher
	now         func() time.Time
}

func NewMessageService(
	messageRepo repository.MessageRepo,
	chatRepo repository.ChatRepo,
	profileRepo repository.ProfileRepo,
	media MediaService,
	publisher realtime.Publisher,
) MessageService {
	return &messageServiceImpl{
		messageRepo: messageRepo,
		chatRepo:    chatRepo,
		profileRepo: profileRepo,
		media:       media,
		publisher:   publisher,
		now:         time.Now,
	}
}

// ListMessages 一次性拉取会话内对当前用户可见的全部消息
func (s *messageServiceImpl) ListMessages(ctx context.Context, viewerID, chatID uint64) ([]*dto.MessageDTO, error) {
	if err := s.checkParticipant(ctx, chatID, viewerID); err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListVisible(ctx, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	return toMessageDTOs(msgs), nil
}

// SendMessage 校验成员身份与媒体字段后写入，并认领引用到的上传
func (s *messageServiceImpl) SendMessage(ctx context.Context, viewerID, chatID uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	if err := s.checkParticipant(ctx, chatID, viewerID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ChatID:      chatID,
		AuthorID:    viewerID,
		Content:     strings.TrimSpace(req.Content),
		MessageType: req.MessageType,
	}
	if msg.Content == "" {
		return nil, ErrParamInvalid
	}

	var mediaURL string
	switch req.MessageType {
	case consts.MessageTypeImage:
		msg.ImageURL, msg.ImageWidth, msg.ImageHeight = req.ImageURL, req.ImageWidth, req.ImageHeight
		mediaURL = req.ImageURL
	case consts.MessageTypeVoice:
		msg.VoiceURL, msg.VoiceDuration = req.VoiceURL, req.VoiceDuration
		mediaURL = req.VoiceURL
	case consts.MessageTypeVideo:
		msg.VideoURL, msg.VideoDuration = req.VideoURL, req.VideoDuration
		mediaURL = req.VideoURL
	case consts.MessageTypeText:
	default:
		return nil, ErrParamInvalid
	}
	if req.MessageType != consts.MessageTypeText && mediaURL == "" {
		return nil, ErrMediaRequired
	}

	res, err := s.Deliver(ctx, msg)
	if err != nil {
		return nil, err
	}

	if mediaURL != "" {
		if err = s.media.Claim(ctx, mediaURL); err != nil {
			log.WarnContext(ctx, "claim media failed", "url", mediaURL, "err", err)
		}
	}
	return res, nil
}

func (s *messageServiceImpl) Deliver(ctx context.Context, msg *model.Message) (*dto.MessageDTO, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}
	if err := s.messageRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if msg.Author == nil {
		author, err := s.profileRepo.GetProfileByID(ctx, msg.AuthorID)
		if err != nil {
			log.WarnContext(ctx, "load author failed", "author_id", msg.AuthorID, "err", err)
		}
		msg.Author = author
	}

	res := ToMessageDTO(msg)
	s.publish(ctx, res)
	return res, nil
}

// HideMessage 仅对自己隐藏，重复隐藏视为成功
func (s *messageServiceImpl) HideMessage(ctx context.Context, viewerID, messageID uint64) error {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if err = s.checkParticipant(ctx, msg.ChatID, viewerID); err != nil {
		return err
	}
	return s.messageRepo.HideMessage(ctx, messageID, viewerID)
}

// DeleteMessage 仅作者可对所有人删除
func (s *messageServiceImpl) DeleteMessage(ctx context.Context, viewerID, messageID uint64) error {
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.AuthorID != viewerID {
		return ErrNotAuthor
	}
	return s.messageRepo.DeleteMessage(ctx, messageID)
}

func (s *messageServiceImpl) MarkRead(ctx context.Context, viewerID, chatID uint64) error {
	if err := s.checkParticipant(ctx, chatID, viewerID); err != nil {
		return err
	}
	return s.chatRepo.UpdateLastRead(ctx, chatID, viewerID, s.now())
}

func (s *messageServiceImpl) AddReaction(ctx context.Context, viewerID, messageID uint64, emoji string) (*dto.MessageDTO, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, ErrParamInvalid
	}
	msg, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if err = s.checkParticipant(ctx, msg.ChatID, viewerID); err != nil {
		return nil, err
	}
	if err = s.messageRepo.AppendReaction(ctx, messageID, emoji); err != nil {
		return nil, err
	}
	msg.Reactions += emoji
	return ToMessageDTO(msg), nil
}

func (s *messageServiceImpl) getMessage(ctx context.Context, messageID uint64) (*model.Message, error) {
	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	return msg, nil
}

func (s *messageServiceImpl) checkParticipant(ctx context.Context, chatID, userID uint64) error {
	ok, err := s.chatRepo.IsParticipant(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}

// publish 推送失败不影响写入，客户端轮询兜底
func (s *messageServiceImpl) publish(ctx context.Context, msg *dto.MessageDTO) {
	if err := s.publisher.PublishInsert(ctx, msg); err != nil {
		log.WarnContext(ctx, "publish message event failed", "message_id", msg.ID, "err", err)
	}
}
