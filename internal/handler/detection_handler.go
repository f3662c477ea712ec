package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"furniture-detector-go/internal/events"
	"furniture-detector-go/internal/service"
	"furniture-detector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	multipartMemory   = 32 << 20 // Части формы больше этого пишутся во временные файлы
	multipartOverhead = 1 << 20  // Запас на заголовки и границы multipart
)

// DetectionHandler обрабатывает загрузку изображений и проверку здоровья
type DetectionHandler struct {
	detectionService *service.DetectionService
	hub              *events.Hub
	maxBytes         int64
	logger           *logrus.Logger
}

// NewDetectionHandler создает новый обработчик. hub может быть nil.
func NewDetectionHandler(detectionService *service.DetectionService, hub *events.Hub, maxBytes int64, logger *logrus.Logger) *DetectionHandler {
	return &DetectionHandler{
		detectionService: detectionService,
		hub:              hub,
		maxBytes:         maxBytes,
		logger:           logger,
	}
}

// RegisterRoutes регистрирует маршруты загрузки, здоровья и событий
func (h *DetectionHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/upload", h.Upload)
	router.GET("/health", h.CheckHealth)
	router.GET("/ws/analyses", h.StreamEvents)

	api := router.Group("/api/v1")
	{
		api.POST("/detect", h.Upload)
		api.GET("/health", h.CheckHealth)
	}
}

// Upload принимает изображение в поле file и возвращает результат детекции
func (h *DetectionHandler) Upload(c *gin.Context) {
	h.logger.Debug("Получен запрос на детекцию")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		if isBodyTooLarge(err) {
			h.logger.Warnf("Слишком большой запрос: %v", err)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": models.PublicMessage(models.ErrPayloadTooLarge)})
			return
		}
		h.logger.Warnf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer c.Request.MultipartForm.RemoveAll()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file selected"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Errorf("Ошибка чтения файла: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": models.PublicMessage(err)})
		return
	}

	response, err := h.detectionService.Analyze(c.Request.Context(), models.AnalyzeRequest{
		ImageData: data,
		Filename:  header.Filename,
	})
	if err != nil {
		c.JSON(models.StatusCode(err), gin.H{"error": models.PublicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, response)
}

// CheckHealth проверяет состояние сервиса
func (h *DetectionHandler) CheckHealth(c *gin.Context) {
	health := h.detectionService.CheckHealth(c.Request.Context())

	statusCode := http.StatusOK
	if health.Status != service.StatusHealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// StreamEvents подключает websocket клиента к ленте анализов
func (h *DetectionHandler) StreamEvents(c *gin.Context) {
	if h.hub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "events are disabled"})
		return
	}
	h.hub.ServeWS(c.Writer, c.Request)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}

// CORSMiddleware добавляет заголовки CORS
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
