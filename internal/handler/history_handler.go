package handler

import (
	"errors"
	"net/http"
	"strconv"

	"furniture-detector-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HistoryHandler обрабатывает запросы к истории анализов
type HistoryHandler struct {
	historyService *service.HistoryService
	logger         *logrus.Logger
}

// NewHistoryHandler создает обработчик. historyService nil означает, что история отключена.
func NewHistoryHandler(historyService *service.HistoryService, logger *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{
		historyService: historyService,
		logger:         logger,
	}
}

// RegisterRoutes регистрирует маршруты истории
func (h *HistoryHandler) RegisterRoutes(router *gin.Engine) {
	analyses := router.Group("/api/v1/analyses", h.requireEnabled)
	{
		analyses.GET("", h.ListAnalyses)
		analyses.GET("/:id", h.GetAnalysis)
		analyses.DELETE("/:id", h.DeleteAnalysis)
		analyses.GET("/:id/image", h.GetAnalysisImage)
	}
}

func (h *HistoryHandler) requireEnabled(c *gin.Context) {
	if h.historyService == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}
	c.Next()
}

// ListAnalyses возвращает список анализов с пагинацией
func (h *HistoryHandler) ListAnalyses(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	analyses, total, err := h.historyService.ListAnalyses(page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка анализов: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list analyses"})
		return
	}

	c.JSON(http.StatusOK, service.ListAnalysesResponse{
		Analyses: analyses,
		Total:    total,
		Page:     page,
		Size:     size,
	})
}

// GetAnalysis возвращает анализ по ID
func (h *HistoryHandler) GetAnalysis(c *gin.Context) {
	analysis, err := h.historyService.GetAnalysis(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// DeleteAnalysis удаляет анализ по ID
func (h *HistoryHandler) DeleteAnalysis(c *gin.Context) {
	if err := h.historyService.DeleteAnalysis(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "analysis deleted"})
}

// GetAnalysisImage отдает сохраненное изображение анализа
func (h *HistoryHandler) GetAnalysisImage(c *gin.Context) {
	path, err := h.historyService.ImagePath(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.File(path)
}

func (h *HistoryHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAnalysisNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
		return
	}
	h.logger.Errorf("Ошибка истории анализов: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "history request failed"})
}
