package client

import (
	"bytes"
	"encoding/json"
	"fmt"

	"furniture-detector-go/pkg/models"
)

// Envelope форма ответа сервиса детекции. Реализации перечислены ниже,
// других быть не может.
type Envelope interface {
	Detections() []models.Detection
	sealed()
}

// WorkflowEnvelope ответ workflow: {"predictions": {"predictions": [...]}}
type WorkflowEnvelope struct {
	Predictions []models.Detection
}

// FlatEnvelope плоский ответ: {"detections": [...]} или {"predictions": [...]} от модели
type FlatEnvelope struct {
	Items []models.Detection
}

// EmptyEnvelope ответ без распознаваемого списка детекций
type EmptyEnvelope struct{}

func (e WorkflowEnvelope) Detections() []models.Detection { return e.Predictions }
func (e FlatEnvelope) Detections() []models.Detection     { return e.Items }
func (EmptyEnvelope) Detections() []models.Detection      { return nil }

func (WorkflowEnvelope) sealed() {}
func (FlatEnvelope) sealed()     {}
func (EmptyEnvelope) sealed()    {}

// wireDetection детекция в формате сервиса, все поля необязательны
type wireDetection struct {
	Class       string  `json:"class"`
	Confidence  float64 `json:"confidence"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	ClassID     *int    `json:"class_id"`
	DetectionID string  `json:"detection_id"`
}

func (w wireDetection) toModel() models.Detection {
	className := w.Class
	if className == "" {
		className = models.UnknownClass
	}
	return models.Detection{
		ClassName:   className,
		Confidence:  w.Confidence,
		CenterX:     w.X,
		CenterY:     w.Y,
		Width:       w.Width,
		Height:      w.Height,
		ClassID:     w.ClassID,
		DetectionID: w.DetectionID,
	}
}

type wireEnvelope struct {
	Outputs     json.RawMessage `json:"outputs"`
	Predictions json.RawMessage `json:"predictions"`
	Detections  json.RawMessage `json:"detections"`
}

// DecodeEnvelope разбирает тело ответа сервиса детекции.
// Список outputs workflow и массив верхнего уровня сводятся к первому элементу.
func DecodeEnvelope(body []byte) (Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("пустое тело ответа")
	}

	if body[0] == '[' {
		first, ok, err := firstElement(body)
		if err != nil {
			return nil, err
		}
		if !ok {
			return EmptyEnvelope{}, nil
		}
		return DecodeEnvelope(first)
	}

	var raw wireEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}

	if isPresent(raw.Outputs) {
		first, ok, err := firstElement(raw.Outputs)
		if err != nil {
			return nil, fmt.Errorf("поле outputs: %w", err)
		}
		if !ok {
			return EmptyEnvelope{}, nil
		}
		return DecodeEnvelope(first)
	}

	if isPresent(raw.Predictions) {
		preds := bytes.TrimSpace(raw.Predictions)
		switch preds[0] {
		case '{':
			var nested struct {
				Predictions []wireDetection `json:"predictions"`
			}
			if err := json.Unmarshal(preds, &nested); err != nil {
				return nil, fmt.Errorf("поле predictions: %w", err)
			}
			if nested.Predictions != nil {
				return WorkflowEnvelope{Predictions: convert(nested.Predictions)}, nil
			}
		case '[':
			items, err := decodeList(preds)
			if err != nil {
				return nil, fmt.Errorf("поле predictions: %w", err)
			}
			return FlatEnvelope{Items: items}, nil
		}
	}

	if isPresent(raw.Detections) {
		items, err := decodeList(raw.Detections)
		if err != nil {
			return nil, fmt.Errorf("поле detections: %w", err)
		}
		return FlatEnvelope{Items: items}, nil
	}

	return EmptyEnvelope{}, nil
}

func isPresent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func firstElement(data []byte) (json.RawMessage, bool, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("ожидался массив: %w", err)
	}
	if len(items) == 0 {
		return nil, false, nil
	}
	return items[0], true, nil
}

func decodeList(data []byte) ([]models.Detection, error) {
	var items []wireDetection
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return convert(items), nil
}

func convert(items []wireDetection) []models.Detection {
	detections := make([]models.Detection, len(items))
	for i, item := range items {
		detections[i] = item.toModel()
	}
	return detections
}
