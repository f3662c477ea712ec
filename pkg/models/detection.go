package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// UnknownClass имя класса для детекций без метки
const UnknownClass = "Unknown"

// Source происхождение набора детекций
type Source string

const (
	SourceRemote   Source = "remote"   // Ответ внешнего сервиса детекции
	SourceFallback Source = "fallback" // Демонстрационный набор вместо недоступного сервиса
	SourceMock     Source = "mock"     // Мок-режим без сетевого вызова
)

// Detection представляет одну детекцию в том виде, в котором ее вернул сервис
type Detection struct {
	ClassName   string  `json:"class"`                  // Имя класса
	Confidence  float64 `json:"confidence"`             // Уверенность модели [0, 1]
	CenterX     float64 `json:"x"`                      // X центра рамки в пикселях
	CenterY     float64 `json:"y"`                      // Y центра рамки в пикселях
	Width       float64 `json:"width"`                  // Ширина рамки в пикселях
	Height      float64 `json:"height"`                 // Высота рамки в пикселях
	ClassID     *int    `json:"class_id,omitempty"`     // Идентификатор класса, если сервис его прислал
	DetectionID string  `json:"detection_id,omitempty"` // Идентификатор детекции, если сервис его прислал
}

// Label возвращает имя класса или UnknownClass
func (d Detection) Label() string {
	if d.ClassName == "" {
		return UnknownClass
	}
	return d.ClassName
}

// DetectionBatch набор детекций одного запроса вместе с их происхождением
type DetectionBatch struct {
	Detections []Detection
	Source     Source
}

// Position координаты центра рамки
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size размеры рамки
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NormalizedDetection детекция, подготовленная для отображения
type NormalizedDetection struct {
	ClassName  string   `json:"class"`
	Confidence string   `json:"confidence"` // Проценты с одним знаком после запятой, например "95.3%"
	Position   Position `json:"position"`
	Size       Size     `json:"size"`
}

// ClassCount количество объектов одного класса
type ClassCount struct {
	ClassName string
	Count     int
}

// ClassCounts упорядоченные счетчики классов.
// Сериализуется в JSON-объект с сохранением порядка ключей.
type ClassCounts []ClassCount

// Total возвращает сумму всех счетчиков
func (cc ClassCounts) Total() int {
	total := 0
	for _, c := range cc {
		total += c.Count
	}
	return total
}

// Get возвращает счетчик класса и признак его наличия
func (cc ClassCounts) Get(className string) (int, bool) {
	for _, c := range cc {
		if c.ClassName == className {
			return c.Count, true
		}
	}
	return 0, false
}

// MarshalJSON сериализует счетчики в объект, сохраняя порядок
func (cc ClassCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range cc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.ClassName)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", c.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает объект счетчиков в порядке следования ключей
func (cc *ClassCounts) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("class counts: expected object, got %v", tok)
	}

	result := ClassCounts{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("class counts: unexpected key %v", keyTok)
		}
		var count int
		if err := dec.Decode(&count); err != nil {
			return fmt.Errorf("class counts: value for %q: %w", key, err)
		}
		result = append(result, ClassCount{ClassName: key, Count: count})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*cc = result
	return nil
}

// DetectionSummary сводка по детекциям одного запроса
type DetectionSummary struct {
	TotalObjects int                   `json:"total_objects"`
	ClassCounts  ClassCounts           `json:"class_counts"`
	Detections   []NormalizedDetection `json:"detections"`
}

// AnalyzeRequest запрос на анализ изображения
type AnalyzeRequest struct {
	ImageData []byte `json:"-"`        // Содержимое файла
	Filename  string `json:"filename"` // Имя файла, указанное клиентом
}

// AnalyzeResponse ответ на загрузку изображения
type AnalyzeResponse struct {
	Success          bool                  `json:"success"`
	TotalObjects     int                   `json:"total_objects"`
	ObjectCounts     ClassCounts           `json:"object_counts"`
	Detections       []NormalizedDetection `json:"detections"`
	OutputImage      string                `json:"output_image"` // data URI с изображением
	Source           Source                `json:"source"`
	Annotated        bool                  `json:"annotated"` // false, если рамки не рисовались
	AnalysisID       string                `json:"analysis_id,omitempty"`
	ProcessingTimeMs int64                 `json:"processing_time_ms"`

	// Для CLI и истории, в JSON не попадают
	OutputData    []byte      `json:"-"`
	RawDetections []Detection `json:"-"`
}

// AnalysisEvent событие о завершенном анализе для подписчиков websocket
type AnalysisEvent struct {
	AnalysisID   string      `json:"analysis_id,omitempty"`
	Filename     string      `json:"filename"`
	Source       Source      `json:"source"`
	TotalObjects int         `json:"total_objects"`
	ObjectCounts ClassCounts `json:"object_counts"`
	CreatedAt    time.Time   `json:"created_at"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status  string `json:"status"`          // Статус сервиса (healthy/unhealthy)
	Mode    string `json:"mode"`            // Режим детекции (workflow/model/mock)
	Version string `json:"version"`         // Версия сервиса
	Error   string `json:"error,omitempty"` // Причина, если сервис нездоров
}
