package summary

import (
	"reflect"
	"testing"

	"furniture-detector-go/pkg/models"
)

func detectionsOf(classes ...string) []models.Detection {
	dets := make([]models.Detection, len(classes))
	for i, c := range classes {
		dets[i] = models.Detection{ClassName: c, Confidence: 0.5, CenterX: float64(i), CenterY: 1, Width: 2, Height: 3}
	}
	return dets
}

func TestCountClasses_OrderedByCount(t *testing.T) {
	counts := CountClasses(detectionsOf("A", "B", "A", "C", "B", "A"))

	expected := models.ClassCounts{
		{ClassName: "A", Count: 3},
		{ClassName: "B", Count: 2},
		{ClassName: "C", Count: 1},
	}
	if !reflect.DeepEqual(counts, expected) {
		t.Errorf("CountClasses = %+v, expected %+v", counts, expected)
	}
}

func TestCountClasses_TiesKeepFirstSeenOrder(t *testing.T) {
	counts := CountClasses(detectionsOf("Lamp", "Sofa", "Chair", "Sofa", "Chair", "Lamp"))

	expected := []string{"Lamp", "Sofa", "Chair"}
	for i, name := range expected {
		if counts[i].ClassName != name || counts[i].Count != 2 {
			t.Errorf("entry %d = %+v, expected %s:2", i, counts[i], name)
		}
	}
}

func TestCountClasses_UnknownClass(t *testing.T) {
	counts := CountClasses([]models.Detection{{}, {ClassName: "Chair"}, {}})
	if counts[0].ClassName != models.UnknownClass || counts[0].Count != 2 {
		t.Errorf("expected Unknown:2 first, got %+v", counts)
	}
}

func TestSummarize_Invariants(t *testing.T) {
	inputs := [][]models.Detection{
		detectionsOf("Chair"),
		detectionsOf("Chair", "Table", "Chair", "Lamp"),
		detectionsOf("A", "B", "C", "D", "E", "F", "G", "H", "I", "A"),
	}

	for _, dets := range inputs {
		s := Summarize(dets)
		if s.TotalObjects != len(dets) {
			t.Errorf("TotalObjects = %d, expected %d", s.TotalObjects, len(dets))
		}
		if len(s.Detections) != s.TotalObjects {
			t.Errorf("len(Detections) = %d, TotalObjects = %d", len(s.Detections), s.TotalObjects)
		}
		if s.ClassCounts.Total() != s.TotalObjects {
			t.Errorf("sum(ClassCounts) = %d, TotalObjects = %d", s.ClassCounts.Total(), s.TotalObjects)
		}

		seen := make(map[string]int)
		for _, c := range s.ClassCounts {
			seen[c.ClassName]++
		}
		for _, d := range s.Detections {
			if seen[d.ClassName] != 1 {
				t.Errorf("class %s appears %d times in ClassCounts", d.ClassName, seen[d.ClassName])
			}
		}
	}
}

func TestSummarize_PreservesOrderAndInput(t *testing.T) {
	dets := []models.Detection{
		{ClassName: "Sofa", Confidence: 0.85, CenterX: 250.26, CenterY: 190.04, Width: 80.56, Height: 60},
		{ClassName: "Chair", Confidence: 0.953, CenterX: 100, CenterY: 100, Width: 50, Height: 80},
	}
	original := make([]models.Detection, len(dets))
	copy(original, dets)

	s := Summarize(dets)

	if !reflect.DeepEqual(dets, original) {
		t.Error("Summarize mutated its input")
	}
	if s.Detections[0].ClassName != "Sofa" || s.Detections[1].ClassName != "Chair" {
		t.Errorf("order not preserved: %+v", s.Detections)
	}

	first := s.Detections[0]
	if first.Position != (models.Position{X: 250.3, Y: 190}) {
		t.Errorf("unexpected position %+v", first.Position)
	}
	if first.Size != (models.Size{Width: 80.6, Height: 60}) {
		t.Errorf("unexpected size %+v", first.Size)
	}
	if first.Confidence != "85.0%" || s.Detections[1].Confidence != "95.3%" {
		t.Errorf("unexpected confidences %q %q", first.Confidence, s.Detections[1].Confidence)
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		input    float64
		expected string
	}{
		{0.953, "95.3%"},
		{0, "0.0%"},
		{1, "100.0%"},
		{0.5, "50.0%"},
		{0.12345, "12.3%"},
	}

	for _, tt := range tests {
		if got := FormatConfidence(tt.input); got != tt.expected {
			t.Errorf("FormatConfidence(%v) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}
