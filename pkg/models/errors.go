package models

import (
	"errors"
	"net/http"
)

// Ошибки конвейера обработки. Все они завершают текущий запрос.
var (
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrInvalidImageContent = errors.New("invalid image content")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrServiceUnavailable  = errors.New("detection service unavailable")
	ErrNoObjectsDetected   = errors.New("no objects detected")
	ErrVisualizationFailed = errors.New("visualization failed")
)

// StatusCode возвращает HTTP статус для ошибки конвейера
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrInvalidFileType),
		errors.Is(err, ErrInvalidImageContent),
		errors.Is(err, ErrNoObjectsDetected):
		return http.StatusBadRequest
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage возвращает сообщение об ошибке для клиента
func PublicMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidFileType):
		return "Invalid file type. Please upload an image file."
	case errors.Is(err, ErrInvalidImageContent):
		return "Invalid image file"
	case errors.Is(err, ErrPayloadTooLarge):
		return "File too large"
	case errors.Is(err, ErrServiceUnavailable):
		return "AI detection service unavailable"
	case errors.Is(err, ErrNoObjectsDetected):
		return "No furniture detected in the image"
	case errors.Is(err, ErrVisualizationFailed):
		return "Failed to create visualization"
	default:
		return "Processing failed: " + err.Error()
	}
}
