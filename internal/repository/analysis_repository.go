package repository

import (
	"errors"
	"fmt"

	"furniture-detector-go/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound анализ с указанным ID не найден
var ErrNotFound = errors.New("analysis not found")

// AnalysisRepository интерфейс для работы с сохраненными анализами
type AnalysisRepository interface {
	Create(analysis *model.Analysis) error
	GetByID(id string) (*model.Analysis, error)
	List(page, pageSize int) ([]*model.Analysis, int64, error)
	Delete(id string) error
}

// analysisRepository реализация AnalysisRepository
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository создает новый instance AnalysisRepository
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{
		db: db,
	}
}

// Create сохраняет анализ вместе со счетчиками классов
func (r *analysisRepository) Create(analysis *model.Analysis) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	classes := analysis.Classes
	analysis.Classes = nil

	if err := tx.Create(analysis).Error; err != nil {
		tx.Rollback()
		analysis.Classes = classes
		return fmt.Errorf("failed to create analysis: %w", err)
	}

	for i := range classes {
		classes[i].ID = 0 // Обнуляем ID для auto-increment
		classes[i].AnalysisID = analysis.ID
		classes[i].Rank = i

		if err := tx.Create(&classes[i]).Error; err != nil {
			tx.Rollback()
			analysis.Classes = classes
			return fmt.Errorf("failed to create class count %d: %w", i, err)
		}
	}
	analysis.Classes = classes

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetByID получает анализ по ID
func (r *analysisRepository) GetByID(id string) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.Preload("Classes", orderByRank).Where("id = ?", id).First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

// List получает список анализов с пагинацией, новые первыми
func (r *analysisRepository) List(page, pageSize int) ([]*model.Analysis, int64, error) {
	var analyses []*model.Analysis
	var total int64

	// Подсчитываем общее количество
	if err := r.db.Model(&model.Analysis{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	offset := (page - 1) * pageSize
	err := r.db.Preload("Classes", orderByRank).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&analyses).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}

	return analyses, total, nil
}

// Delete удаляет анализ по ID
func (r *analysisRepository) Delete(id string) error {
	tx := r.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// Сначала удаляем счетчики
	if err := tx.Where("analysis_id = ?", id).Delete(&model.AnalysisClass{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete class counts: %w", err)
	}

	result := tx.Where("id = ?", id).Delete(&model.Analysis{})
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete analysis: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		tx.Rollback()
		return fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func orderByRank(db *gorm.DB) *gorm.DB {
	return db.Order("class_rank ASC")
}
