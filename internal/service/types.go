package service

import (
	"time"

	"furniture-detector-go/pkg/models"
)

// AnalysisResponse сохраненный анализ в ответе API
type AnalysisResponse struct {
	ID               string             `json:"id"`
	Filename         string             `json:"filename"`
	Source           models.Source      `json:"source"`
	Annotated        bool               `json:"annotated"`
	TotalObjects     int                `json:"total_objects"`
	ObjectCounts     models.ClassCounts `json:"object_counts"`
	ProcessingTimeMs int64              `json:"processing_time_ms"`
	ImageURL         string             `json:"image_url,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
}

// ListAnalysesResponse ответ со списком анализов
type ListAnalysesResponse struct {
	Analyses []AnalysisResponse `json:"analyses"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

// SaveAnalysisRequest запрос на сохранение анализа
type SaveAnalysisRequest struct {
	AnalysisID       string
	Filename         string
	Source           models.Source
	Annotated        bool
	TotalObjects     int
	ObjectCounts     models.ClassCounts
	ProcessingTimeMs int64
	Image            []byte // Выходное изображение
}
