package handler

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/response"
	"Chatwave/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService service.ChatService
}

func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListChats 会话列表
func (s *ChatHandler) ListChats(c *gin.Context) {
	res, err := s.chatService.ListChats(c.Request.Context(), viewerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// DirectChat 按手机号获取或创建单聊
func (s *ChatHandler) DirectChat(c *gin.Context) {
	var req dto.DirectChatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.chatService.GetOrCreateDirectChatByPhone(c.Request.Context(), viewerID(c), req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ChatHandler) GetTitle(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	title, err := s.chatService.GetChatTitle(c.Request.Context(), viewerID(c), chatID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.ChatTitleDTO{ChatID: chatID, Title: title})
}

func (s *ChatHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.chatService.CreateGroup(c.Request.Context(), viewerID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

func (s *ChatHandler) UpdateGroup(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.UpdateGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.chatService.UpdateGroup(c.Request.Context(), viewerID(c), chatID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ChatHandler) DeleteGroup(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.chatService.DeleteGroup(c.Request.Context(), viewerID(c), chatID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// AddMembers 返回实际新增的人数
func (s *ChatHandler) AddMembers(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.AddMembersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	added, err := s.chatService.AddMembers(c.Request.Context(), viewerID(c), chatID, req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"added": added})
}

func (s *ChatHandler) RemoveMember(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	userID, ok := uintParam(c, "user_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.chatService.RemoveMember(c.Request.Context(), viewerID(c), chatID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *ChatHandler) LeaveGroup(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.chatService.LeaveGroup(c.Request.Context(), viewerID(c), chatID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
