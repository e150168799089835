package bootstrap

import (
	"context"
	"log"

	"oraculo-be/internal/chatsync"
	"oraculo-be/internal/config"
	"oraculo-be/internal/controller"
	"oraculo-be/internal/handler"
	"oraculo-be/internal/pkg/logger"
	"oraculo-be/internal/pkg/mailer"
	"oraculo-be/internal/repository/memory"
	"oraculo-be/internal/repository/unitofwork"
	"oraculo-be/internal/service"
	"oraculo-be/internal/websocket"
	"oraculo-be/pkg/embedding"
	"oraculo-be/pkg/generation"
	pktNats "oraculo-be/pkg/nats"
	"oraculo-be/pkg/vectorsearch"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	ChatController      controller.IChatController
	AdminController     controller.IAdminController
	KnowledgeController controller.IKnowledgeController

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSocket push
	StateHandler *handler.StateHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
		cfg.App.ClientURL,
	)

	// In-process event bus for generation dispatch
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// Embedding provider for the knowledge base preview search
	var embeddingProvider embedding.Provider
	if cfg.Vector.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Vector.OllamaBaseURL, cfg.Vector.OllamaModel)
		log.Printf("[INFO] Using embedding provider: OLLAMA (%s)", cfg.Vector.OllamaModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Vector.OllamaBaseURL, cfg.Vector.OllamaModel)
		log.Printf("[WARN] Unknown embedding provider %q, falling back to OLLAMA", cfg.Vector.EmbeddingProvider)
	}

	// NATS event bus
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS publisher: %v", err)
	}

	// Redis for websocket cross-instance fan-out
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket hub on an isolated log file
	wsLogger := logger.NewIsolatedLogger("logs/push.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// Chat synchronization core
	chatCfg := chatsync.Config{
		MessageLimit:   cfg.Chat.MessageLimit,
		PollInterval:   cfg.Chat.PollInterval,
		RetryDelay:     cfg.Chat.RetryDelay,
		ReconcileDelay: cfg.Chat.ReconcileDelay,
		SafetyTimeout:  cfg.Chat.SafetyTimeout,
		HardTimeout:    cfg.Chat.HardTimeout,
	}
	registry := memory.NewManagerRegistry()
	publisherService := service.NewPublisherService(cfg.Generation.Topic, pubSub)
	notifier := service.NewSnapshotNotifier(wsHub, natsPub, wsLogger)

	chatService := service.NewChatService(registry, uowFactory, publisherService, notifier, chatCfg, sysLogger)

	webhookClient := generation.NewWebhookClient(cfg.Generation.WebhookURL, cfg.Generation.Timeout)
	consumerService := service.NewConsumerService(pubSub, cfg.Generation.Topic, webhookClient, chatService, cfg.Generation.Timeout)

	// Admin + knowledge base
	authService := service.NewAuthService(uowFactory, natsPub)
	adminService := service.NewAdminService(uowFactory, emailService, natsPub, sysLogger)

	vectorClient := vectorsearch.NewClient(cfg.Vector.APIBaseURL, cfg.Vector.APIKey)
	knowledgeService := service.NewKnowledgeService(uowFactory, vectorClient, embeddingProvider, natsPub, sysLogger)

	return &Container{
		AuthController:      controller.NewAuthController(authService),
		ChatController:      controller.NewChatController(chatService),
		AdminController:     controller.NewAdminController(adminService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),

		ConsumerService: consumerService,

		StateHandler: handler.NewStateHandler(wsHub, wsLogger),
		WebSocketHub: wsHub,
	}
}
