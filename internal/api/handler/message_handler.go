package handler

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/response"
	"Chatwave/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	messageService service.MessageService
}

func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// ListMessages 会话内对当前用户可见的全部消息
func (s *MessageHandler) ListMessages(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.messageService.ListMessages(c.Request.Context(), viewerID(c), chatID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// SendMessage 发送消息接口
func (s *MessageHandler) SendMessage(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.messageService.SendMessage(c.Request.Context(), viewerID(c), chatID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkRead 标记已读接口
func (s *MessageHandler) MarkRead(c *gin.Context) {
	chatID, ok := uintParam(c, "chat_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.messageService.MarkRead(c.Request.Context(), viewerID(c), chatID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MessageHandler) DeleteMessage(c *gin.Context) {
	messageID, ok := uintParam(c, "message_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.messageService.DeleteMessage(c.Request.Context(), viewerID(c), messageID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// HideMessage 仅对自己删除
func (s *MessageHandler) HideMessage(c *gin.Context) {
	messageID, ok := uintParam(c, "message_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.messageService.HideMessage(c.Request.Context(), viewerID(c), messageID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *MessageHandler) AddReaction(c *gin.Context) {
	messageID, ok := uintParam(c, "message_id")
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	var req dto.ReactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	res, err := s.messageService.AddReaction(c.Request.Context(), viewerID(c), messageID, req.Emoji)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}
