package client

import (
	"context"
	"errors"
	"testing"

	"furniture-detector-go/pkg/models"
)

func TestDecodeEnvelope_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantKind  Envelope
		wantCount int
	}{
		{"workflow outputs", `{"outputs":[{"predictions":{"predictions":[{"class":"Chair"},{"class":"Lamp"}]}}]}`, WorkflowEnvelope{}, 2},
		{"workflow without outputs", `{"predictions":{"predictions":[{"class":"Chair"}]}}`, WorkflowEnvelope{}, 1},
		{"top-level array", `[{"predictions":{"predictions":[{"class":"Sofa"}]}}]`, WorkflowEnvelope{}, 1},
		{"flat detections", `{"detections":[{"class":"Table"},{"class":"Table"},{"class":"Lamp"}]}`, FlatEnvelope{}, 3},
		{"model predictions array", `{"time":0.1,"predictions":[{"class":"Sofa"}]}`, FlatEnvelope{}, 1},
		{"no known keys", `{"status":"ok"}`, EmptyEnvelope{}, 0},
		{"empty outputs", `{"outputs":[]}`, EmptyEnvelope{}, 0},
		{"null predictions", `{"predictions":null}`, EmptyEnvelope{}, 0},
		{"predictions object without list", `{"predictions":{"image":{}}}`, EmptyEnvelope{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := DecodeEnvelope([]byte(tt.body))
			if err != nil {
				t.Fatalf("DecodeEnvelope failed: %v", err)
			}

			var kindOK bool
			switch tt.wantKind.(type) {
			case WorkflowEnvelope:
				_, kindOK = env.(WorkflowEnvelope)
			case FlatEnvelope:
				_, kindOK = env.(FlatEnvelope)
			case EmptyEnvelope:
				_, kindOK = env.(EmptyEnvelope)
			}
			if !kindOK {
				t.Errorf("got envelope %T, expected %T", env, tt.wantKind)
			}
			if got := len(env.Detections()); got != tt.wantCount {
				t.Errorf("got %d detections, expected %d", got, tt.wantCount)
			}
		})
	}
}

func TestDecodeEnvelope_WorkflowTakesPrecedence(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"predictions":{"predictions":[{"class":"Chair"}]},"detections":[{"class":"Lamp"},{"class":"Lamp"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := env.(WorkflowEnvelope); !ok {
		t.Errorf("expected workflow envelope, got %T", env)
	}
}

func TestDecodeEnvelope_Errors(t *testing.T) {
	for _, body := range []string{"", "   ", "not json", `{"detections":"nope"}`, `{"outputs":{}}`} {
		if _, err := DecodeEnvelope([]byte(body)); err == nil {
			t.Errorf("DecodeEnvelope(%q) should fail", body)
		}
	}
}

func TestDecodeEnvelope_DefaultsMissingFields(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"detections":[{"x":5,"y":6}]}`))
	if err != nil {
		t.Fatal(err)
	}
	d := env.Detections()[0]
	if d.ClassName != models.UnknownClass || d.Confidence != 0 || d.CenterX != 5 || d.CenterY != 6 {
		t.Errorf("unexpected defaults %+v", d)
	}
}

type stubDetector struct {
	batch *models.DetectionBatch
	err   error
	calls int
}

func (s *stubDetector) Detect(ctx context.Context, image []byte, filename string) (*models.DetectionBatch, error) {
	s.calls++
	return s.batch, s.err
}

func (s *stubDetector) CheckHealth(ctx context.Context) error {
	return s.err
}

func TestFallbackDetector_SubstitutesOnUnavailable(t *testing.T) {
	inner := &stubDetector{err: errors.Join(models.ErrServiceUnavailable, errors.New("timeout"))}
	f := NewFallbackDetector(inner, quietLogger())

	batch, err := f.Detect(context.Background(), []byte("img"), "a.jpg")
	if err != nil {
		t.Fatalf("fallback should hide unavailability: %v", err)
	}
	if batch.Source != models.SourceFallback {
		t.Errorf("fallback batch must be tagged, got %q", batch.Source)
	}
	if len(batch.Detections) != 3 || batch.Detections[0].ClassName != "Chair" {
		t.Errorf("unexpected fallback detections %+v", batch.Detections)
	}
	if inner.calls != 1 {
		t.Errorf("expected exactly one call, got %d", inner.calls)
	}

	if err := f.CheckHealth(context.Background()); !errors.Is(err, models.ErrServiceUnavailable) {
		t.Errorf("health must report the real service, got %v", err)
	}
}

func TestFallbackDetector_PassesThroughOtherResults(t *testing.T) {
	other := errors.New("request build failed")
	f := NewFallbackDetector(&stubDetector{err: other}, quietLogger())
	if _, err := f.Detect(context.Background(), nil, "a.jpg"); !errors.Is(err, other) {
		t.Errorf("expected original error, got %v", err)
	}

	remote := &models.DetectionBatch{Source: models.SourceRemote}
	f = NewFallbackDetector(&stubDetector{batch: remote}, quietLogger())
	batch, err := f.Detect(context.Background(), nil, "a.jpg")
	if err != nil || batch != remote {
		t.Errorf("expected real batch, got %+v, %v", batch, err)
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector(quietLogger())

	batch, err := m.Detect(context.Background(), nil, "any.png")
	if err != nil {
		t.Fatal(err)
	}
	if batch.Source != models.SourceMock || len(batch.Detections) != 5 {
		t.Fatalf("unexpected mock batch %+v", batch)
	}
	last := batch.Detections[4]
	if last.ClassName != "Bookshelf" || last.CenterX != 300 || last.CenterY != 220 || last.Width != 80 || last.Height != 60 {
		t.Errorf("unexpected last mock detection %+v", last)
	}
	if err := m.CheckHealth(context.Background()); err != nil {
		t.Errorf("mock should be healthy: %v", err)
	}
}
