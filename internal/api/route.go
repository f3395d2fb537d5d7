package api

import (
	"Chatwave/internal/api/middleware"
	"Chatwave/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxUploadMemory multipart 表单驻留内存的上限，超出部分落临时文件
const maxUploadMemory = 32 << 20

func SetupRouter(group *HandlersGroup, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})
	r.MaxMultipartMemory = maxUploadMemory

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	logger.SetupGin(r)

	auth := middleware.AuthMiddleware(group.AuthService)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		authGroup := apiGroup.Group("/auth")
		authGroup.Use(auth)
		{
			authGroup.POST("/logout", group.AuthHandler.Logout)
		}

		profileGroup := apiGroup.Group("/profiles")
		profileGroup.Use(auth)
		{
			profileGroup.PUT("/me", group.ProfileHandler.UpdateMyProfile)
			profileGroup.GET("/:user_id", group.ProfileHandler.GetProfile)
		}

		chatGroup := apiGroup.Group("/chats")
		chatGroup.Use(auth)
		{
			chatGroup.GET("", group.ChatHandler.ListChats)
			chatGroup.POST("/direct", group.ChatHandler.DirectChat)
			chatGroup.POST("/group", group.ChatHandler.CreateGroup)
			chatGroup.GET("/:chat_id/title", group.ChatHandler.GetTitle)
			chatGroup.PUT("/:chat_id/group", group.ChatHandler.UpdateGroup)
			chatGroup.DELETE("/:chat_id/group", group.ChatHandler.DeleteGroup)
			chatGroup.POST("/:chat_id/members", group.ChatHandler.AddMembers)
			chatGroup.DELETE("/:chat_id/members/:user_id", group.ChatHandler.RemoveMember)
			chatGroup.POST("/:chat_id/leave", group.ChatHandler.LeaveGroup)

			chatGroup.GET("/:chat_id/messages", group.MessageHandler.ListMessages)
			chatGroup.POST("/:chat_id/messages", group.MessageHandler.SendMessage)
			chatGroup.POST("/:chat_id/read", group.MessageHandler.MarkRead)
		}

		messageGroup := apiGroup.Group("/messages")
		messageGroup.Use(auth)
		{
			messageGroup.DELETE("/:message_id", group.MessageHandler.DeleteMessage)
			messageGroup.POST("/:message_id/hide", group.MessageHandler.HideMessage)
			messageGroup.POST("/:message_id/reactions", group.MessageHandler.AddReaction)
		}

		mediaGroup := apiGroup.Group("/media")
		mediaGroup.Use(auth)
		{
			mediaGroup.POST("/upload", group.MediaHandler.Upload)
		}

		agentGroup := apiGroup.Group("/agents")
		{
			// 工作流回调凭 X-API-Key 鉴权
			agentGroup.POST("/webhook", group.AgentHandler.Webhook)

			ownerGroup := agentGroup.Group("")
			ownerGroup.Use(auth)
			{
				ownerGroup.GET("", group.AgentHandler.ListAgents)
				ownerGroup.POST("", group.AgentHandler.CreateAgent)
				ownerGroup.GET("/:agent_id", group.AgentHandler.GetAgent)
				ownerGroup.PUT("/:agent_id", group.AgentHandler.UpdateAgent)
				ownerGroup.DELETE("/:agent_id", group.AgentHandler.DeleteAgent)
				ownerGroup.POST("/:agent_id/test", group.AgentHandler.TestConnection)
				ownerGroup.GET("/:agent_id/executions", group.AgentHandler.ExecutionHistory)
				ownerGroup.POST("/:agent_id/dispatch", group.AgentHandler.Dispatch)
			}
		}

		imGroup := apiGroup.Group("/im")
		{
			imGroup.GET("/ws", group.WSHandler.Connect)
		}
	}

	return r
}
