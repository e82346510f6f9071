package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/shenikar/civic_alerts/internal/config"
	"github.com/shenikar/civic_alerts/internal/email"
	"github.com/shenikar/civic_alerts/internal/enhance"
	v1 "github.com/shenikar/civic_alerts/internal/handler/http/v1"
	"github.com/shenikar/civic_alerts/internal/ingest"
	"github.com/shenikar/civic_alerts/internal/notify"
	"github.com/shenikar/civic_alerts/internal/repository"
	"github.com/shenikar/civic_alerts/internal/service"
	"github.com/shenikar/civic_alerts/internal/storage"
	"github.com/shenikar/civic_alerts/internal/telemetry"
	"github.com/shenikar/civic_alerts/internal/webhook"
	"github.com/shenikar/civic_alerts/pkg/logger"
	"github.com/shenikar/civic_alerts/pkg/postgres"
	redisclient "github.com/shenikar/civic_alerts/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/civic_alerts/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Civic Alerts API
// @version 1.0
// @description Civic issue reporting backend with a live alert stream for operators.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	version, err := postgres.RunMigrations("file://migrations", cfg.DatabaseURL)
	if err != nil {
		return err
	}

	log.WithField("version", version).Info("Database migrations applied successfully")
	return nil
}

func newEmailSender(cfg *config.Config, log *logrus.Logger) email.Sender {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST is not configured, outgoing email will only be logged")
		return email.NewLogSender(log)
	}
	return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
}

// newEventPublisher возвращает nil без WEBHOOK_URL: воркер не запускается, и очередь никто не разбирает
func newEventPublisher(cfg *config.Config, client *redis.Client, log *logrus.Logger) webhook.EventPublisher {
	if cfg.WebhookURL == "" {
		log.Warn("WEBHOOK_URL is not configured, alert events are not queued")
		return nil
	}
	return webhook.NewRedisEventPublisher(client)
}

func newEnhancer(cfg *config.Config, log *logrus.Logger) enhance.Enhancer {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY is not configured, descriptions are returned as is")
		return enhance.PassthroughEnhancer{}
	}
	return enhance.NewGeminiEnhancer(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, log)
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Брокер live-стрима создается один раз и передается сервису и хендлеру
	overflow, err := notify.ParseOverflowPolicy(cfg.StreamOverflow)
	if err != nil {
		log.Fatalf("Invalid STREAM_OVERFLOW: %v", err)
	}
	broker := notify.NewBroker(notify.Options{BufferSize: cfg.StreamBuffer, Overflow: overflow}, log)

	// Инициализация издателя вебхуков
	webhookPublisher := newEventPublisher(cfg, redisClient, log)

	// Инициализация и запуск воркера вебхуков
	webhookWorker := webhook.NewWorker(redisClient, log, cfg)
	webhookWorker.Start(ctx)

	// Инициализация репозиториев
	alertRepo := repository.NewAlertRepository(dbpool, redisClient, cfg.AlertCacheTTL)
	cameraRepo := repository.NewCameraRepository(dbpool)

	// Инициализация сервисов
	alertService := service.NewAlertService(alertRepo, broker, webhookPublisher, log, cfg)
	cameraService := service.NewCameraService(cameraRepo, log)
	detectionService := service.NewDetectionService(alertService, cameraService, log, cfg)
	contactService := service.NewContactService(alertService, newEmailSender(cfg, log), log, cfg)

	redisPing := func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	deps := v1.Dependencies{
		Alerts:     alertService,
		Cameras:    cameraService,
		Detections: detectionService,
		Contact:    contactService,
		Enhancer:   newEnhancer(cfg, log),
		Stream:     broker,
		HealthChecks: map[string]func(context.Context) error{
			"postgres": dbpool.Ping,
			"redis":    redisPing,
		},
	}

	var background sync.WaitGroup

	// Хранилище фотографий (опционально)
	if cfg.MinioEndpoint != "" {
		images, err := storage.NewImageStore(storage.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
			PublicURL: cfg.MinioPublicURL,
			MaxBytes:  cfg.UploadMaxBytes,
		}, log)
		if err != nil {
			log.Fatalf("Failed to create MinIO client: %v", err)
		}
		if err := images.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to prepare MinIO bucket: %v", err)
		}
		deps.Images = images
	} else {
		log.Warn("MINIO_ENDPOINT is not configured, image uploads disabled")
	}

	// Обнаружения камер из Kafka (опционально)
	var consumer *ingest.DetectionConsumer
	if len(cfg.KafkaBrokers) > 0 {
		reader := ingest.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaDetectionsTopic)
		consumer = ingest.NewDetectionConsumer(reader, detectionService, log)
		background.Add(1)
		go func() {
			defer background.Done()
			consumer.Run(ctx)
		}()
	} else {
		log.Warn("KAFKA_BROKERS is not configured, detection consumer disabled")
	}

	// Датчики качества воздуха через MQTT, история в InfluxDB (опционально)
	var influx *telemetry.InfluxWriter
	var sensors *telemetry.Store
	if cfg.MQTTBrokerURL != "" {
		sensors = telemetry.NewStore()
		var sink telemetry.Sink
		if cfg.InfluxURL != "" {
			influx = telemetry.NewInfluxWriter(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
			sink = influx
		}
		processor := telemetry.NewProcessor(sensors, sink, log)
		mqttClient := telemetry.NewMQTTClient(telemetry.MQTTOptions{
			BrokerURL: cfg.MQTTBrokerURL,
			ClientID:  cfg.MQTTClientID,
			Topic:     cfg.MQTTAQITopic,
			Username:  cfg.MQTTUsername,
			Password:  cfg.MQTTPassword,
			QoS:       1,
		}, processor, log)
		background.Add(1)
		go func() {
			defer background.Done()
			if err := telemetry.ConnectWithBackoff(ctx, mqttClient, time.Second, 30*time.Second, log); err != nil {
				log.WithError(err).Warn("MQTT connection abandoned")
				return
			}
			<-ctx.Done()
			mqttClient.Disconnect(250)
		}()
		deps.AirQuality = sensors
	} else {
		log.Warn("MQTT_BROKER_URL is not configured, air quality telemetry disabled")
	}

	// Инициализация хэндлеров
	handler := v1.NewHandler(deps, log, cfg)

	// Настройка Gin роутера
	router := gin.New()
	router.Use(gin.Recovery(), v1.RequestLogger(log), v1.MetricsMiddleware())
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Запуск HTTP-сервера. WriteTimeout не задан: SSE-соединения живут долго.
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	// Сначала закрываем стрим, иначе Shutdown будет ждать открытые SSE-соединения
	broker.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	cancel()
	background.Wait()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Kafka reader")
		}
	}
	if influx != nil {
		influx.Close()
	}

	log.Info("Server gracefully stopped")
}
