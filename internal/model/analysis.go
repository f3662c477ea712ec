package model

import (
	"time"

	"gorm.io/gorm"
)

// Analysis представляет сохраненный анализ изображения
type Analysis struct {
	ID               string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Filename         string `gorm:"type:varchar(255);not null" json:"filename"`
	Source           string `gorm:"type:varchar(16);not null" json:"source"`
	Annotated        bool   `gorm:"not null" json:"annotated"`
	TotalObjects     int    `gorm:"not null;default:0" json:"total_objects"`
	ProcessingTimeMs int64  `gorm:"not null;default:0" json:"processing_time_ms"`
	ImagePath        string `gorm:"type:varchar(500)" json:"-"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Счетчики классов в порядке ранга
	Classes []AnalysisClass `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE" json:"classes"`
}

// AnalysisClass количество объектов одного класса в анализе
type AnalysisClass struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	AnalysisID string `gorm:"type:varchar(36);not null;index" json:"-"`
	ClassName  string `gorm:"type:varchar(255);not null" json:"class"`
	Count      int    `gorm:"not null" json:"count"`
	Rank       int    `gorm:"column:class_rank;not null" json:"rank"` // Позиция в упорядоченных счетчиках, с нуля

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName указывает имя таблицы для Analysis
func (Analysis) TableName() string {
	return "analyses"
}

// TableName указывает имя таблицы для AnalysisClass
func (AnalysisClass) TableName() string {
	return "analysis_classes"
}
