package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"furniture-detector-go/internal/client"
	"furniture-detector-go/internal/ingress"
	"furniture-detector-go/internal/render"
	"furniture-detector-go/internal/summary"
	"furniture-detector-go/pkg/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Version версия сервиса в ответах health
const Version = "1.0.0"

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// AnalysisRecorder сохраняет завершенные анализы
type AnalysisRecorder interface {
	SaveAnalysis(req *SaveAnalysisRequest) error
}

// EventPublisher рассылает события о завершенных анализах
type EventPublisher interface {
	Publish(event models.AnalysisEvent)
}

// DetectionService сервис детекции мебели на изображениях
type DetectionService struct {
	validator      *ingress.Validator
	detector       client.Detector
	visualizer     render.Visualizer
	renderFallback bool
	mode           string
	history        AnalysisRecorder
	events         EventPublisher
	logger         *logrus.Logger
}

// NewDetectionService создает новый сервис детекции.
// renderFallback разрешает вернуть исходное изображение, если отрисовка не удалась.
func NewDetectionService(
	validator *ingress.Validator,
	detector client.Detector,
	visualizer render.Visualizer,
	renderFallback bool,
	mode string,
	logger *logrus.Logger,
) *DetectionService {
	return &DetectionService{
		validator:      validator,
		detector:       detector,
		visualizer:     visualizer,
		renderFallback: renderFallback,
		mode:           mode,
		logger:         logger,
	}
}

// WithHistory включает сохранение истории
func (s *DetectionService) WithHistory(history AnalysisRecorder) *DetectionService {
	s.history = history
	return s
}

// WithEvents включает рассылку событий
func (s *DetectionService) WithEvents(events EventPublisher) *DetectionService {
	s.events = events
	return s
}

// Analyze выполняет полный цикл: проверка, детекция, сводка, визуализация
func (s *DetectionService) Analyze(ctx context.Context, request models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	startTime := time.Now()
	log := s.logger.WithFields(logrus.Fields{
		"filename": request.Filename,
		"bytes":    len(request.ImageData),
	})
	log.Info("Начинаем анализ изображения")

	// 1. Проверяем файл до любых сетевых вызовов
	if err := s.validator.Validate(request.ImageData, request.Filename); err != nil {
		log.Warnf("Файл отклонен: %v", err)
		return nil, err
	}

	// 2. Детекция
	batch, err := s.detector.Detect(ctx, request.ImageData, request.Filename)
	if err != nil {
		log.Errorf("Ошибка при обращении к сервису детекции: %v", err)
		return nil, err
	}
	if len(batch.Detections) == 0 {
		log.Info("Сервис детекции не нашел объектов")
		return nil, fmt.Errorf("%w: пустой список детекций", models.ErrNoObjectsDetected)
	}

	log = log.WithFields(logrus.Fields{
		"source":     batch.Source,
		"detections": len(batch.Detections),
	})

	// 3. Сводка
	result := summary.Summarize(batch.Detections)

	// 4. Визуализация
	output, annotated, err := s.visualize(request.ImageData, batch.Detections, log)
	if err != nil {
		return nil, err
	}

	response := &models.AnalyzeResponse{
		Success:          true,
		TotalObjects:     result.TotalObjects,
		ObjectCounts:     result.ClassCounts,
		Detections:       result.Detections,
		OutputImage:      DataURI(output),
		Source:           batch.Source,
		Annotated:        annotated,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		OutputData:       output,
		RawDetections:    batch.Detections,
	}

	s.record(response, request.Filename, log)
	s.publish(response, request.Filename)

	log.WithField("processing_time_ms", response.ProcessingTimeMs).Info("Анализ завершен")
	return response, nil
}

// visualize рисует детекции. При ошибке отрисовки и включенном fallback
// возвращает исходное изображение с annotated=false.
func (s *DetectionService) visualize(image []byte, detections []models.Detection, log *logrus.Entry) ([]byte, bool, error) {
	output, err := s.visualizer.Render(image, detections)
	if err == nil {
		return output, s.visualizer.Annotates(), nil
	}

	if s.renderFallback && errors.Is(err, models.ErrVisualizationFailed) {
		log.Warnf("Ошибка визуализации, возвращаем исходное изображение: %v", err)
		return image, false, nil
	}

	log.Errorf("Ошибка визуализации: %v", err)
	return nil, false, err
}

// record сохраняет анализ в истории. Ошибка сохранения не влияет на ответ.
func (s *DetectionService) record(response *models.AnalyzeResponse, filename string, log *logrus.Entry) {
	if s.history == nil {
		return
	}

	analysisID := uuid.New().String()
	err := s.history.SaveAnalysis(&SaveAnalysisRequest{
		AnalysisID:       analysisID,
		Filename:         filename,
		Source:           response.Source,
		Annotated:        response.Annotated,
		TotalObjects:     response.TotalObjects,
		ObjectCounts:     response.ObjectCounts,
		ProcessingTimeMs: response.ProcessingTimeMs,
		Image:            response.OutputData,
	})
	if err != nil {
		log.Errorf("Не удалось сохранить анализ в истории: %v", err)
		return
	}
	response.AnalysisID = analysisID
}

func (s *DetectionService) publish(response *models.AnalyzeResponse, filename string) {
	if s.events == nil {
		return
	}
	s.events.Publish(models.AnalysisEvent{
		AnalysisID:   response.AnalysisID,
		Filename:     filename,
		Source:       response.Source,
		TotalObjects: response.TotalObjects,
		ObjectCounts: response.ObjectCounts,
		CreatedAt:    time.Now().UTC(),
	})
}

// CheckHealth проверяет состояние сервиса детекции
func (s *DetectionService) CheckHealth(ctx context.Context) *models.HealthResponse {
	s.logger.Debug("Проверяем состояние сервиса детекции")

	if err := s.detector.CheckHealth(ctx); err != nil {
		s.logger.Errorf("Сервис детекции недоступен: %v", err)
		return &models.HealthResponse{
			Status:  StatusUnhealthy,
			Mode:    s.mode,
			Version: Version,
			Error:   models.PublicMessage(models.ErrServiceUnavailable),
		}
	}

	return &models.HealthResponse{
		Status:  StatusHealthy,
		Mode:    s.mode,
		Version: Version,
	}
}

// DataURI кодирует изображение в data URI с типом по содержимому
func DataURI(data []byte) string {
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}
