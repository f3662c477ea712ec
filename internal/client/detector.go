package client

import (
	"context"
	"errors"
	"fmt"

	"furniture-detector-go/internal/config"
	"furniture-detector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Detector источник детекций для изображения
type Detector interface {
	Detect(ctx context.Context, image []byte, filename string) (*models.DetectionBatch, error)
	CheckHealth(ctx context.Context) error
}

// NewDetector создает детектор для режима из конфигурации.
// При включенном fallback реальный клиент оборачивается FallbackDetector.
func NewDetector(cfg config.DetectionConfig, logger *logrus.Logger) Detector {
	if cfg.Mode == config.ModeMock {
		logger.Warn("Мок-режим: сервис детекции не вызывается, возвращаются демонстрационные данные")
		return NewMockDetector(logger)
	}

	var detector Detector = NewRoboflowClient(cfg, logger)
	if cfg.FallbackEnabled {
		logger.Warn("Включена подстановка демонстрационных детекций при недоступности сервиса")
		detector = NewFallbackDetector(detector, logger)
	}
	return detector
}

// DemoDetections фиксированный набор, подставляемый при недоступности сервиса
func DemoDetections() []models.Detection {
	return []models.Detection{
		{ClassName: "Chair", Confidence: 0.95, CenterX: 100, CenterY: 100, Width: 50, Height: 80},
		{ClassName: "Table", Confidence: 0.88, CenterX: 200, CenterY: 150, Width: 120, Height: 60},
		{ClassName: "Lamp", Confidence: 0.92, CenterX: 300, CenterY: 80, Width: 30, Height: 100},
	}
}

// MockDetections набор мок-режима: пять классов со сдвигом позиций
func MockDetections() []models.Detection {
	classes := []struct {
		name       string
		confidence float64
	}{
		{"Chair", 0.95},
		{"Table", 0.88},
		{"Lamp", 0.92},
		{"Sofa", 0.85},
		{"Bookshelf", 0.78},
	}

	detections := make([]models.Detection, len(classes))
	for i, c := range classes {
		detections[i] = models.Detection{
			ClassName:  c.name,
			Confidence: c.confidence,
			CenterX:    float64(100 + i*50),
			CenterY:    float64(100 + i*30),
			Width:      80,
			Height:     60,
		}
	}
	return detections
}

// MockDetector детектор без сетевых вызовов
type MockDetector struct {
	logger *logrus.Logger
}

// NewMockDetector создает мок-детектор
func NewMockDetector(logger *logrus.Logger) *MockDetector {
	return &MockDetector{logger: logger}
}

// Detect возвращает MockDetections
func (m *MockDetector) Detect(ctx context.Context, image []byte, filename string) (*models.DetectionBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.logger.WithField("filename", filename).Debug("Мок-детекция")
	return &models.DetectionBatch{
		Detections: MockDetections(),
		Source:     models.SourceMock,
	}, nil
}

// CheckHealth мок всегда здоров
func (m *MockDetector) CheckHealth(ctx context.Context) error {
	return nil
}

// FallbackDetector подставляет DemoDetections, если сервис недоступен.
// Остальные ошибки пропускаются без изменений.
type FallbackDetector struct {
	next   Detector
	logger *logrus.Logger
}

// NewFallbackDetector оборачивает детектор
func NewFallbackDetector(next Detector, logger *logrus.Logger) *FallbackDetector {
	return &FallbackDetector{next: next, logger: logger}
}

func (f *FallbackDetector) Detect(ctx context.Context, image []byte, filename string) (*models.DetectionBatch, error) {
	batch, err := f.next.Detect(ctx, image, filename)
	if err == nil {
		return batch, nil
	}
	if !errors.Is(err, models.ErrServiceUnavailable) {
		return nil, err
	}

	f.logger.WithFields(logrus.Fields{
		"filename": filename,
		"error":    err.Error(),
	}).Warn("Сервис детекции недоступен, возвращаются демонстрационные детекции")

	return &models.DetectionBatch{
		Detections: DemoDetections(),
		Source:     models.SourceFallback,
	}, nil
}

// CheckHealth проверяет реальный сервис: подстановка не делает его здоровым
func (f *FallbackDetector) CheckHealth(ctx context.Context) error {
	if err := f.next.CheckHealth(ctx); err != nil {
		return fmt.Errorf("fallback: %w", err)
	}
	return nil
}
