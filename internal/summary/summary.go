package summary

import (
	"fmt"
	"sort"

	"furniture-detector-go/internal/geometry"
	"furniture-detector-go/pkg/models"
)

// Summarize строит сводку по детекциям. Входной срез не изменяется.
func Summarize(detections []models.Detection) models.DetectionSummary {
	normalized := make([]models.NormalizedDetection, len(detections))
	for i, d := range detections {
		normalized[i] = Normalize(d)
	}

	return models.DetectionSummary{
		TotalObjects: len(detections),
		ClassCounts:  CountClasses(detections),
		Detections:   normalized,
	}
}

// CountClasses считает объекты по классам.
// Результат упорядочен по убыванию количества, при равенстве по первому появлению.
func CountClasses(detections []models.Detection) models.ClassCounts {
	counts := models.ClassCounts{}
	index := make(map[string]int)

	for _, d := range detections {
		name := d.Label()
		if i, ok := index[name]; ok {
			counts[i].Count++
			continue
		}
		index[name] = len(counts)
		counts = append(counts, models.ClassCount{ClassName: name, Count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})
	return counts
}

// Normalize готовит детекцию к отображению
func Normalize(d models.Detection) models.NormalizedDetection {
	return models.NormalizedDetection{
		ClassName:  d.Label(),
		Confidence: FormatConfidence(d.Confidence),
		Position: models.Position{
			X: geometry.Round1(d.CenterX),
			Y: geometry.Round1(d.CenterY),
		},
		Size: models.Size{
			Width:  geometry.Round1(d.Width),
			Height: geometry.Round1(d.Height),
		},
	}
}

// FormatConfidence форматирует уверенность в проценты с одним знаком: 0.953 -> "95.3%"
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", geometry.Round1(confidence*100))
}
