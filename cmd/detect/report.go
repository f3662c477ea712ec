package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"furniture-detector-go/pkg/models"

	"github.com/gabriel-vasile/mimetype"
)

const (
	resultsFileName = "detection_results.json"
	outputImageBase = "output_with_detections"
)

// Report результат детекции для файла detection_results.json
type Report struct {
	ImagePath    string             `json:"image_path"`
	Source       models.Source      `json:"source"`
	Annotated    bool               `json:"annotated"`
	TotalObjects int                `json:"total_objects"`
	ObjectCounts models.ClassCounts `json:"object_counts"`
	Detections   []models.Detection `json:"detections"`
}

// NewReport собирает отчет из ответа сервиса
func NewReport(imagePath string, resp *models.AnalyzeResponse) Report {
	return Report{
		ImagePath:    imagePath,
		Source:       resp.Source,
		Annotated:    resp.Annotated,
		TotalObjects: resp.TotalObjects,
		ObjectCounts: resp.ObjectCounts,
		Detections:   resp.RawDetections,
	}
}

// WriteText печатает нумерованный список детекций и счетчики классов
func WriteText(w io.Writer, r Report) error {
	separator := strings.Repeat("=", 50)
	var b strings.Builder

	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b, "DETECTION RESULTS")
	fmt.Fprintln(&b, separator)
	if r.Source != models.SourceRemote {
		fmt.Fprintf(&b, "Source: %s (not real detections)\n", r.Source)
	}
	fmt.Fprintf(&b, "Found %d detections:\n\n", len(r.Detections))

	for i, d := range r.Detections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Label())
		fmt.Fprintf(&b, "   Confidence: %.2f%%\n", d.Confidence*100)
		fmt.Fprintf(&b, "   Position: (%.1f, %.1f)\n", d.CenterX, d.CenterY)
		fmt.Fprintf(&b, "   Size: %.1f x %.1f\n\n", d.Width, d.Height)
	}

	fmt.Fprintln(&b, separator)
	fmt.Fprintln(&b, "OBJECT COUNTS")
	fmt.Fprintln(&b, separator)
	fmt.Fprintf(&b, "Total objects detected: %d\n\n", r.TotalObjects)
	for _, c := range r.ObjectCounts {
		fmt.Fprintf(&b, "%s: %d\n", c.ClassName, c.Count)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// SaveOutputs пишет JSON отчет и выходное изображение в dir
func SaveOutputs(dir string, r Report, image []byte) (string, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("ошибка создания каталога %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("ошибка сериализации отчета: %w", err)
	}

	jsonPath := filepath.Join(dir, resultsFileName)
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("ошибка записи %s: %w", jsonPath, err)
	}

	imagePath := filepath.Join(dir, outputImageBase+imageExtension(image))
	if err := os.WriteFile(imagePath, image, 0644); err != nil {
		return "", "", fmt.Errorf("ошибка записи %s: %w", imagePath, err)
	}

	return jsonPath, imagePath, nil
}

func imageExtension(image []byte) string {
	if ext := mimetype.Detect(image).Extension(); ext != "" {
		return ext
	}
	return ".jpg"
}
