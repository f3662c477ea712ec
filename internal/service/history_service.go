package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"furniture-detector-go/internal/model"
	"furniture-detector-go/internal/repository"
	"furniture-detector-go/pkg/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrAnalysisNotFound анализ отсутствует в истории
var ErrAnalysisNotFound = repository.ErrNotFound

// HistoryService сервис истории анализов
type HistoryService struct {
	analysisRepo repository.AnalysisRepository
	logger       *logrus.Logger
	staticDir    string
}

// NewHistoryService создает новый сервис истории
func NewHistoryService(analysisRepo repository.AnalysisRepository, logger *logrus.Logger, staticDir string) *HistoryService {
	return &HistoryService{
		analysisRepo: analysisRepo,
		logger:       logger,
		staticDir:    staticDir,
	}
}

// SaveAnalysis сохраняет выходное изображение и запись анализа.
// Если запись в БД не удалась, файл изображения удаляется.
func (s *HistoryService) SaveAnalysis(req *SaveAnalysisRequest) error {
	log := s.logger.WithField("analysis_id", req.AnalysisID)
	log.Info("Сохраняем анализ в истории")

	imagePath := ""
	if len(req.Image) > 0 {
		var err error
		imagePath, err = s.saveImageFile(req.AnalysisID, req.Image)
		if err != nil {
			log.Errorf("Ошибка сохранения изображения: %v", err)
			return fmt.Errorf("failed to save image file: %w", err)
		}
	}

	analysis := &model.Analysis{
		ID:               req.AnalysisID,
		Filename:         req.Filename,
		Source:           string(req.Source),
		Annotated:        req.Annotated,
		TotalObjects:     req.TotalObjects,
		ProcessingTimeMs: req.ProcessingTimeMs,
		ImagePath:        imagePath,
	}
	for _, c := range req.ObjectCounts {
		analysis.Classes = append(analysis.Classes, model.AnalysisClass{
			ClassName: c.ClassName,
			Count:     c.Count,
		})
	}

	if err := s.analysisRepo.Create(analysis); err != nil {
		log.Errorf("Ошибка сохранения анализа в БД: %v", err)
		if imagePath != "" {
			s.removeImage(imagePath)
		}
		return fmt.Errorf("failed to save analysis to database: %w", err)
	}

	log.WithField("classes", len(analysis.Classes)).Info("Анализ сохранен")
	return nil
}

// GetAnalysis получает анализ по ID
func (s *HistoryService) GetAnalysis(id string) (*AnalysisResponse, error) {
	analysis, err := s.analysisRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return s.modelToResponse(analysis), nil
}

// ListAnalyses получает список анализов с пагинацией
func (s *HistoryService) ListAnalyses(page, pageSize int) ([]AnalysisResponse, int64, error) {
	s.logger.Debugf("Получаем список анализов: страница %d, размер %d", page, pageSize)

	analyses, total, err := s.analysisRepo.List(page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка анализов: %v", err)
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}

	responses := make([]AnalysisResponse, len(analyses))
	for i, analysis := range analyses {
		responses[i] = *s.modelToResponse(analysis)
	}
	return responses, total, nil
}

// DeleteAnalysis удаляет анализ и его изображение
func (s *HistoryService) DeleteAnalysis(id string) error {
	s.logger.Infof("Удаляем анализ %s", id)

	analysis, err := s.analysisRepo.GetByID(id)
	if err != nil {
		return fmt.Errorf("failed to get analysis for deletion: %w", err)
	}

	if err := s.analysisRepo.Delete(id); err != nil {
		s.logger.Errorf("Ошибка удаления анализа из БД: %v", err)
		return fmt.Errorf("failed to delete analysis from database: %w", err)
	}

	if analysis.ImagePath != "" {
		s.removeImage(analysis.ImagePath)
	}
	return nil
}

// ImagePath путь к сохраненному изображению анализа
func (s *HistoryService) ImagePath(id string) (string, error) {
	analysis, err := s.analysisRepo.GetByID(id)
	if err != nil {
		return "", fmt.Errorf("failed to get analysis: %w", err)
	}
	if analysis.ImagePath == "" {
		return "", fmt.Errorf("analysis %s has no image: %w", id, ErrAnalysisNotFound)
	}
	return analysis.ImagePath, nil
}

// GenerateAnalysisID генерирует уникальный ID для анализа
func (s *HistoryService) GenerateAnalysisID() string {
	return uuid.New().String()
}

// saveImageFile сохраняет изображение в {staticDir}/analyses/{id}/{id}{ext}
func (s *HistoryService) saveImageFile(analysisID string, image []byte) (string, error) {
	dir := filepath.Join(s.staticDir, "analyses", analysisID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create analysis directory: %w", err)
	}

	ext := mimetype.Detect(image).Extension()
	if ext == "" {
		ext = ".jpg"
	}
	filePath := filepath.Join(dir, analysisID+ext)

	if err := os.WriteFile(filePath, image, 0644); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	s.logger.Debugf("Изображение сохранено: %s (%d байт)", filePath, len(image))
	return filePath, nil
}

func (s *HistoryService) removeImage(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warnf("Не удалось удалить файл %s: %v", path, err)
		return
	}
	// Пустая директория анализа больше не нужна
	_ = os.Remove(filepath.Dir(path))
}

// modelToResponse преобразует модель базы данных в ответ API
func (s *HistoryService) modelToResponse(analysis *model.Analysis) *AnalysisResponse {
	response := &AnalysisResponse{
		ID:               analysis.ID,
		Filename:         analysis.Filename,
		Source:           models.Source(analysis.Source),
		Annotated:        analysis.Annotated,
		TotalObjects:     analysis.TotalObjects,
		ObjectCounts:     models.ClassCounts{},
		ProcessingTimeMs: analysis.ProcessingTimeMs,
		CreatedAt:        analysis.CreatedAt,
	}
	if analysis.ImagePath != "" {
		response.ImageURL = fmt.Sprintf("/api/v1/analyses/%s/image", analysis.ID)
	}

	for _, c := range analysis.Classes {
		response.ObjectCounts = append(response.ObjectCounts, models.ClassCount{
			ClassName: c.ClassName,
			Count:     c.Count,
		})
	}
	return response
}
