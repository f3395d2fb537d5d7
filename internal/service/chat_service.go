package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/model"
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/realtime"
	"Chatwave/internal/pkg/util"
	"Chatwave/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"gorm.io/gorm"
)

// ChatService 单聊、群聊与会话列表
type ChatService interface {
	GetOrCreateDirectChatByPhone(ctx context.Context, viewerID uint64, phone string) (*dto.ChatDTO, error)
	ListChats(ctx context.Context, viewerID uint64) ([]*dto.ChatDTO, error)
	GetChatTitle(ctx context.Context, viewerID, chatID uint64) (string, error)
	IsMember(ctx context.Context, viewerID, chatID uint64) (bool, error)
	CreateGroup(ctx context.Context, viewerID uint64, req *dto.CreateGroupReq) (*dto.ChatDTO, error)
	AddMembers(ctx context.Context, viewerID, chatID uint64, userIDs []uint64) (int64, error)
	RemoveMember(ctx context.Context, viewerID, chatID, userID uint64) error
	LeaveGroup(ctx context.Context, viewerID, chatID uint64) error
	UpdateGroup(ctx context.Context, viewerID, chatID uint64, req *dto.UpdateGroupReq) error
	DeleteGroup(ctx context.Context, viewerID, chatID uint64) error
}

type chatServiceImpl struct {
	chatRepo    repository.ChatRepo
	messageRepo repository.MessageRepo
	profileRepo repository.ProfileRepo
	media       MediaService
	publisher   realtime.Publisher
	now         func() time.Time
}

func NewChatService(
	chatRepo repository.ChatRepo,
	messageRepo repository.MessageRepo,
	profileRepo repository.ProfileRepo,
	media MediaService,
	publisher realtime.Publisher,
) ChatService {
	return &chatServiceImpl{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		profileRepo: profileRepo,
		media:       media,
		publisher:   publisher,
		now:         time.Now,
	}
}

// GetOrCreateDirectChatByPhone 按手机号查找或创建单聊
func (s *chatServiceImpl) GetOrCreateDirectChatByPhone(ctx context.Context, viewerID uint64, phone string) (*dto.ChatDTO, error) {
	phone = util.NormalizePhone(phone)
	if !util.ValidatePhone(phone) {
		return nil, ErrParamInvalid
	}

	target, err := s.profileRepo.GetProfileByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserPhoneNotFound
	}
	if target.ID == viewerID {
		return nil, ErrTargetUserInvalid
	}

	key := model.DirectKey(viewerID, target.ID)
	chat, err := s.chatRepo.GetChatByDirectKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if chat == nil {
		chat = &model.Chat{DirectKey: &key, CreatedBy: viewerID}
		participants := []*model.ChatParticipant{
			{UserID: viewerID, Role: consts.RoleMember},
			{UserID: target.ID, Role: consts.RoleMember},
		}
		err = s.chatRepo.CreateChat(ctx, chat, participants, nil)
		if repository.IsDuplicateEntry(err) {
			// 双方同时发起，取已创建的那个
			chat, err = s.chatRepo.GetChatByDirectKey(ctx, key)
		}
		if err != nil {
			return nil, err
		}
		if chat == nil {
			return nil, ErrConversation
		}
	}

	return &dto.ChatDTO{ID: chat.ID, Title: peerName(target)}, nil
}

// ListChats 会话列表：标题、最后一条消息与未读数
func (s *chatServiceImpl) ListChats(ctx context.Context, viewerID uint64) ([]*dto.ChatDTO, error) {
	summaries, err := s.chatRepo.ListUserChats(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(summaries))
	directIDs := make([]uint64, 0, len(summaries))
	for _, c := range summaries {
		ids = append(ids, c.ID)
		if !c.IsGroup {
			directIDs = append(directIDs, c.ID)
		}
	}

	peers, err := s.chatRepo.GetPeerProfiles(ctx, directIDs, viewerID)
	if err != nil {
		return nil, err
	}
	lasts, err := s.messageRepo.GetLastMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatDTO, 0, len(summaries))
	for _, c := range summaries {
		d := &dto.ChatDTO{
			ID:            c.ID,
			IsGroup:       c.IsGroup,
			LastMessage:   ToMessageDTO(lasts[c.ID]),
			LastMessageAt: c.LastMessageAt,
			UnreadCount:   c.UnreadCount,
		}
		if c.IsGroup {
			d.Title = c.GroupName
			d.PhotoURL = c.GroupPhotoURL
		} else if peer := peers[c.ID]; peer != nil {
			d.Title = peerName(peer)
			d.PhotoURL = peer.AvatarURL
		}
		res = append(res, d)
	}
	return res, nil
}

// IsMember 当前用户是否在会话中
func (s *chatServiceImpl) IsMember(ctx context.Context, viewerID, chatID uint64) (bool, error) {
	return s.chatRepo.IsParticipant(ctx, chatID, viewerID)
}

// GetChatTitle 群名，或单聊对方的昵称/手机号
func (s *chatServiceImpl) GetChatTitle(ctx context.Context, viewerID, chatID uint64) (string, error) {
	chat, err := s.getChatForParticipant(ctx, chatID, viewerID)
	if err != nil {
		return "", err
	}
	if chat.IsGroup {
		return chat.GroupName, nil
	}
	peers, err := s.chatRepo.GetPeerProfiles(ctx, []uint64{chatID}, viewerID)
	if err != nil {
		return "", err
	}
	return peerName(peers[chatID]), nil
}

// CreateGroup 创建者为管理员，并写入一条创建提示
func (s *chatServiceImpl) CreateGroup(ctx context.Context, viewerID uint64, req *dto.CreateGroupReq) (*dto.ChatDTO, error) {
	members := uniqueIDs(req.MemberIDs, viewerID)
	if len(members) == 0 {
		return nil, ErrParamInvalid
	}
	profiles, err := s.profileRepo.GetProfilesByIDs(ctx, members)
	if err != nil {
		return nil, err
	}
	if len(profiles) != len(members) {
		return nil, ErrUserNotFound
	}

	chat := &model.Chat{
		IsGroup:          true,
		GroupName:        req.Name,
		GroupDescription: req.Description,
		CreatedBy:        viewerID,
	}
	participants := []*model.ChatParticipant{{UserID: viewerID, Role: consts.RoleAdmin}}
	for _, id := range members {
		participants = append(participants, &model.ChatParticipant{UserID: id, Role: consts.RoleMember})
	}
	sysMsg := s.systemMessage(viewerID, fmt.Sprintf("Group %q was created", req.Name))

	if err = s.chatRepo.CreateChat(ctx, chat, participants, sysMsg); err != nil {
		return nil, err
	}
	s.publishSystem(ctx, sysMsg)

	return &dto.ChatDTO{
		ID:          chat.ID,
		IsGroup:     true,
		Title:       chat.GroupName,
		LastMessage: ToMessageDTO(sysMsg),
	}, nil
}

func (s *chatServiceImpl) AddMembers(ctx context.Context, viewerID, chatID uint64, userIDs []uint64) (int64, error) {
	if _, err := s.requireAdmin(ctx, chatID, viewerID); err != nil {
		return 0, err
	}
	ids := uniqueIDs(userIDs, viewerID)
	if len(ids) == 0 {
		return 0, ErrParamInvalid
	}
	existing, err := s.chatRepo.ListParticipantIDs(ctx, chatID)
	if err != nil {
		return 0, err
	}
	ids = excludeIDs(ids, existing)
	if len(ids) == 0 {
		return 0, nil
	}
	profiles, err := s.profileRepo.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(profiles) != len(ids) {
		return 0, ErrUserNotFound
	}

	sysMsg := s.systemMessage(viewerID, fmt.Sprintf("Added %d member(s) to the group", len(ids)))
	added, err := s.chatRepo.AddParticipants(ctx, chatID, ids, sysMsg)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.publishSystem(ctx, sysMsg)
	}
	return added, nil
}

func (s *chatServiceImpl) RemoveMember(ctx context.Context, viewerID, chatID, userID uint64) error {
	if userID == viewerID {
		return s.LeaveGroup(ctx, viewerID, chatID)
	}
	if _, err := s.requireAdmin(ctx, chatID, viewerID); err != nil {
		return err
	}
	target, err := s.profileRepo.GetProfileByID(ctx, userID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrUserNotFound
	}

	sysMsg := s.systemMessage(viewerID, fmt.Sprintf("Removed %s from the group", peerName(target)))
	if err = s.chatRepo.RemoveParticipant(ctx, chatID, userID, sysMsg); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTargetUserInvalid
		}
		return err
	}
	s.publishSystem(ctx, sysMsg)
	return nil
}

func (s *chatServiceImpl) LeaveGroup(ctx context.Context, viewerID, chatID uint64) error {
	chat, err := s.getChatForParticipant(ctx, chatID, viewerID)
	if err != nil {
		return err
	}
	if !chat.IsGroup {
		return ErrNotGroup
	}

	sysMsg := s.systemMessage(viewerID, "Left the group")
	if err = s.chatRepo.RemoveParticipant(ctx, chatID, viewerID, sysMsg); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotParticipant
		}
		return err
	}
	s.publishSystem(ctx, sysMsg)
	return nil
}

func (s *chatServiceImpl) UpdateGroup(ctx context.Context, viewerID, chatID uint64, req *dto.UpdateGroupReq) error {
	if _, err := s.requireAdmin(ctx, chatID, viewerID); err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["group_name"] = *req.Name
	}
	if req.Description != nil {
		updates["group_description"] = *req.Description
	}
	if req.PhotoURL != nil {
		updates["group_photo_url"] = *req.PhotoURL
	}
	if err := s.chatRepo.UpdateGroup(ctx, chatID, updates); err != nil {
		return err
	}
	if req.PhotoURL != nil {
		if err := s.media.Claim(ctx, *req.PhotoURL); err != nil {
			log.WarnContext(ctx, "claim group photo failed", "err", err)
		}
	}
	return nil
}

// DeleteGroup 事务内删除消息、成员与会话
func (s *chatServiceImpl) DeleteGroup(ctx context.Context, viewerID, chatID uint64) error {
	if _, err := s.requireAdmin(ctx, chatID, viewerID); err != nil {
		return err
	}
	return s.chatRepo.DeleteChat(ctx, chatID)
}

func (s *chatServiceImpl) getChatForParticipant(ctx context.Context, chatID, viewerID uint64) (*model.Chat, error) {
	chat, err := s.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	ok, err := s.chatRepo.IsParticipant(ctx, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotParticipant
	}
	return chat, nil
}

// requireAdmin 群聊且当前用户为管理员
func (s *chatServiceImpl) requireAdmin(ctx context.Context, chatID, viewerID uint64) (*model.Chat, error) {
	chat, err := s.chatRepo.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}
	if !chat.IsGroup {
		return nil, ErrNotGroup
	}
	p, err := s.chatRepo.GetParticipant(ctx, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotParticipant
	}
	if p.Role != consts.RoleAdmin {
		return nil, ErrNotAdmin
	}
	return chat, nil
}

func (s *chatServiceImpl) systemMessage(authorID uint64, content string) *model.Message {
	return &model.Message{
		AuthorID:    authorID,
		Content:     content,
		MessageType: consts.MessageTypeSystem,
		CreatedAt:   s.now(),
	}
}

func (s *chatServiceImpl) publishSystem(ctx context.Context, msg *model.Message) {
	if err := s.publisher.PublishInsert(ctx, ToMessageDTO(msg)); err != nil {
		log.WarnContext(ctx, "publish system message failed", "chat_id", msg.ChatID, "err", err)
	}
}

func peerName(p *model.Profile) string {
	if p == nil {
		return ""
	}
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Phone
}

func excludeIDs(ids, exclude []uint64) []uint64 {
	skip := make(map[uint64]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	res := ids[:0]
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			res = append(res, id)
		}
	}
	return res
}

// uniqueIDs 去重并排除 self 与 0
func uniqueIDs(ids []uint64, self uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	res := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 || id == self {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
