package api

import (
	"Chatwave/internal/api/handler"
	"Chatwave/internal/service"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	AuthService    service.AuthService
	AuthHandler    *handler.AuthHandler
	ProfileHandler *handler.ProfileHandler
	ChatHandler    *handler.ChatHandler
	MessageHandler *handler.MessageHandler
	MediaHandler   *handler.MediaHandler
	AgentHandler   *handler.AgentHandler
	WSHandler      *handler.WsHandler
}
