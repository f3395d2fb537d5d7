package wire

import (
	"Chatwave/internal/api"
	"Chatwave/internal/api/config"
	"Chatwave/internal/api/handler"
	"Chatwave/internal/job"
	"Chatwave/internal/pkg/cron"
	"Chatwave/internal/pkg/kafka"
	"Chatwave/internal/pkg/mongo"
	"Chatwave/internal/pkg/n8n"
	"Chatwave/internal/pkg/realtime"
	"Chatwave/internal/repository"
	"Chatwave/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router        *gin.Engine
	DB            *gorm.DB
	CronMgr       *cron.Manager
	KafkaManager  *kafka.ConsumerManager
	ExecutionRepo mongo.AgentExecutionRepo
}

// NewPublisher 按 realtime.source 选择变更事件的生产方
func NewPublisher(cfg config.RealtimeConfig) realtime.Publisher {
	if cfg.Source == config.RealtimeCanal {
		return realtime.NewNopPublisher()
	}
	return realtime.NewRedisPublisher(cfg.Channel)
}

func BuildApplication(db *gorm.DB, mongoDB *mongodrv.Database, cfg *config.Config) (*ApplicationContainer, error) {
	profileRepo := repository.NewProfileRepo(db)
	chatRepo := repository.NewChatRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	agentRepo := repository.NewAgentRepo(db)
	execRepo := mongo.NewAgentExecutionRepo(mongoDB)

	publisher := NewPublisher(cfg.Realtime)
	mediaStore := service.NewMinioMediaStore()

	authService := service.NewAuthService()
	mediaService := service.NewMediaService(mediaStore, chatRepo)
	profileService := service.NewProfileService(profileRepo, mediaService)
	messageService := service.NewMessageService(messageRepo, chatRepo, profileRepo, mediaService, publisher)
	chatService := service.NewChatService(chatRepo, messageRepo, profileRepo, mediaService, publisher)
	agentService := service.NewAgentService(agentRepo, chatRepo, execRepo, messageService, n8n.NewClient(cfg.N8N))

	handlers := &api.HandlersGroup{
		AuthService:    authService,
		AuthHandler:    handler.NewAuthHandler(authService),
		ProfileHandler: handler.NewProfileHandler(profileService),
		ChatHandler:    handler.NewChatHandler(chatService),
		MessageHandler: handler.NewMessageHandler(messageService),
		MediaHandler:   handler.NewMediaHandler(mediaService),
		AgentHandler:   handler.NewAgentHandler(agentService),
		WSHandler:      handler.NewWsHandler(authService, chatService, cfg.Realtime.Channel),
	}

	router := api.SetupRouter(handlers, cfg.Server.AllowedOrigins)

	cleanupJob := job.NewMediaCleanupJob(mediaStore, cfg.Media.TempTTL)
	cronMgr := cron.NewCronManager(cleanupJob, cfg.Media.CleanupSpec)

	app := &ApplicationContainer{
		Router:        router,
		DB:            db,
		CronMgr:       cronMgr,
		ExecutionRepo: execRepo,
	}

	// canal 模式下由 binlog 中转推送
	if cfg.Realtime.Source == config.RealtimeCanal {
		kafkaMgr, err := kafka.NewConsumerManager(cfg, realtime.NewRedisPublisher(cfg.Realtime.Channel), profileRepo)
		if err != nil {
			return nil, err
		}
		app.KafkaManager = kafkaMgr
		log.Info("realtime relayed from canal", "topic", cfg.KafkaMessageConsumer.Topic)
	}

	return app, nil
}
