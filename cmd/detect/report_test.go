package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"furniture-detector-go/pkg/models"
)

func sampleReport() Report {
	return Report{
		ImagePath:    "living-room.jpg",
		Source:       models.SourceRemote,
		Annotated:    true,
		TotalObjects: 3,
		ObjectCounts: models.ClassCounts{{ClassName: "Chair", Count: 2}, {ClassName: "Lamp", Count: 1}},
		Detections: []models.Detection{
			{ClassName: "Chair", Confidence: 0.953, CenterX: 100, CenterY: 100, Width: 50, Height: 80},
			{ClassName: "Lamp", Confidence: 0.92, CenterX: 300.25, CenterY: 80, Width: 30, Height: 100},
			{ClassName: "Chair", Confidence: 0.5, CenterX: 10, CenterY: 20, Width: 5, Height: 6},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Found 3 detections:",
		"1. Chair\n   Confidence: 95.30%\n   Position: (100.0, 100.0)\n   Size: 50.0 x 80.0\n",
		"2. Lamp\n",
		"Total objects detected: 3",
		"Chair: 2\nLamp: 1\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "not real detections") {
		t.Error("remote results must not be flagged")
	}
}

func TestWriteText_FlagsFabricatedResults(t *testing.T) {
	r := sampleReport()
	r.Source = models.SourceFallback

	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Source: fallback (not real detections)") {
		t.Errorf("fallback results must be flagged:\n%s", buf.String())
	}
}

func TestSaveOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	var img bytes.Buffer
	if err := jpeg.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatal(err)
	}

	jsonPath, imagePath, err := SaveOutputs(dir, sampleReport(), img.Bytes())
	if err != nil {
		t.Fatalf("SaveOutputs failed: %v", err)
	}
	if filepath.Base(jsonPath) != "detection_results.json" || filepath.Base(imagePath) != "output_with_detections.jpg" {
		t.Errorf("unexpected paths %s %s", jsonPath, imagePath)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		ImagePath    string             `json:"image_path"`
		TotalObjects int                `json:"total_objects"`
		ObjectCounts models.ClassCounts `json:"object_counts"`
		Detections   []models.Detection `json:"detections"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if decoded.ImagePath != "living-room.jpg" || decoded.TotalObjects != 3 || len(decoded.Detections) != 3 {
		t.Errorf("unexpected report %+v", decoded)
	}
	if decoded.ObjectCounts[0].ClassName != "Chair" {
		t.Errorf("count order lost: %+v", decoded.ObjectCounts)
	}

	saved, err := os.ReadFile(imagePath)
	if err != nil || !bytes.Equal(saved, img.Bytes()) {
		t.Errorf("image not saved intact: %v", err)
	}
}
