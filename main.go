package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-stream-service/internal/chatstream"
	"chat-stream-service/internal/config"
	"chat-stream-service/internal/db"
	"chat-stream-service/internal/handlers"
	"chat-stream-service/internal/idem"
	"chat-stream-service/internal/kafka"
	"chat-stream-service/internal/middleware"
	"chat-stream-service/internal/notify"
	"chat-stream-service/internal/observability"
	"chat-stream-service/internal/rabbitmq"
	"chat-stream-service/internal/repositories"
	"chat-stream-service/internal/storage"
	"chat-stream-service/internal/telemetry"
	"chat-stream-service/internal/ws"
)

const serviceName = "chat-stream-service"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("setup tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	fileStore, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		UseSSL:    cfg.S3UseSSL,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		log.Fatalf("failed to connect to file store: %v", err)
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	logger.Info("audit publisher ready", "mode", rabbitmq.PublisherMode(auditPublisher))
	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, "audit_log.chat", serviceName, cfg.Environment)

	if wsEvents, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err == nil {
		observability.SetPublisher(wsEvents)
		defer wsEvents.Close()
	} else {
		logger.Warn("ws event publisher disabled", "err", err)
	}

	var idemStore idem.Store
	if cfg.RedisAddr != "" {
		idemStore = idem.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	chatRepo := repositories.NewChatRepo(database)
	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	outboxRepo := repositories.NewOutboxRepo(database)

	hub := ws.NewHub()
	notifier := notify.NewOutboxNotifier(outboxRepo, logger)

	var bus notify.BusSink
	if writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic); writer != nil {
		defer writer.Close()
		bus = writer
	}
	dispatcher := notify.NewDispatcher(outboxRepo, hub, bus, cfg.OutboxInterval, cfg.OutboxBatch, logger)
	go dispatcher.Run(ctx)

	service := chatstream.NewService(chatRepo, userRepo, messageRepo, fileStore, notifier, logger)
	chatHandler := handlers.NewChatHandler(service, idemStore)

	verifier := middleware.NewTokenVerifier(cfg.JWTSecret)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, verifier)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.POST("/chats", authMiddleware, chatHandler.CreateChat)
	router.POST("/chats/:chat_id/messages", authMiddleware, chatHandler.SendMessage)
	router.GET("/chats/:chat_id/messages", authMiddleware, chatHandler.ListMessages)
	router.POST("/chats/:chat_id/messages/:message_id/read", authMiddleware, chatHandler.MarkRead)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
