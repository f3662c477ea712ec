package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"furniture-detector-go/internal/client"
	"furniture-detector-go/internal/config"
	"furniture-detector-go/internal/database"
	"furniture-detector-go/internal/events"
	"furniture-detector-go/internal/grpcserver"
	"furniture-detector-go/internal/handler"
	"furniture-detector-go/internal/ingress"
	"furniture-detector-go/internal/render"
	"furniture-detector-go/internal/repository"
	"furniture-detector-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const healthRefreshInterval = 30 * time.Second

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Не удалось прочитать .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Ошибка конфигурации: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{
		"mode":   cfg.Detection.Mode,
		"render": cfg.Render.Mode,
	}).Info("Запуск Furniture Detector API Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Конвейер детекции
	validator := ingress.NewValidator(cfg.Upload.MaxBytes, cfg.Upload.AllowedExtensions)
	detector := client.NewDetector(cfg.Detection, logger)
	visualizer := render.NewVisualizer(cfg.Render, logger)
	detectionService := service.NewDetectionService(
		validator, detector, visualizer,
		cfg.Render.FallbackToOriginal, cfg.Detection.Mode, logger,
	)

	// Лента событий
	hub := events.NewHub(logger)
	go hub.Run(ctx)
	detectionService.WithEvents(hub)

	// История анализов
	var historyService *service.HistoryService
	if cfg.History.Enabled {
		db := connectDatabase(cfg, logger)
		defer database.Close(db)

		if err := os.MkdirAll(filepath.Join(cfg.History.StaticDir, "analyses"), 0755); err != nil {
			logger.Fatalf("Ошибка создания папки для статических файлов: %v", err)
		}

		historyService = service.NewHistoryService(repository.NewAnalysisRepository(db), logger, cfg.History.StaticDir)
		detectionService.WithHistory(historyService)
	}

	// gRPC health
	if cfg.GRPC.Port > 0 {
		healthServer := grpcserver.NewHealthServer(detector.CheckHealth, healthRefreshInterval, logger)
		go func() {
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port)
			if err := healthServer.Serve(ctx, addr); err != nil {
				logger.Errorf("Ошибка gRPC health сервера: %v", err)
			}
		}()
	}

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(handler.CORSMiddleware())

	handler.NewDetectionHandler(detectionService, hub, cfg.Upload.MaxBytes, logger).RegisterRoutes(router)
	handler.NewHistoryHandler(historyService, logger).RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Furniture Detector API Server",
			"version": service.Version,
			"status":  "running",
		})
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Сервер запущен на %s", cfg.ListenAddr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Detection.Timeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка остановки сервера: %v", err)
	}
}

func connectDatabase(cfg *config.Config, logger *logrus.Logger) *gorm.DB {
	logger.Info("Подключение к базе данных...")
	db, err := database.Connect(cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	if err := database.Migrate(db, logger); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	if err := database.HealthCheck(db); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")
	return db
}
