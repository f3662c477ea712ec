package ingress

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"furniture-detector-go/pkg/models"

	"golang.org/x/image/bmp"
)

func encodeTestImage(t *testing.T, format string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 40), 90, 255})
		}
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	default:
		t.Fatalf("unknown format %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestValidate_AcceptsSupportedFormats(t *testing.T) {
	v := NewValidator(1<<20, nil)

	tests := []struct {
		filename string
		format   string
	}{
		{"room.png", "png"},
		{"room.JPG", "jpeg"},
		{"room.jpeg", "jpeg"},
		{"room.gif", "gif"},
		{"room.Bmp", "bmp"},
	}

	for _, tt := range tests {
		if err := v.Validate(encodeTestImage(t, tt.format), tt.filename); err != nil {
			t.Errorf("Validate(%s) failed: %v", tt.filename, err)
		}
	}
}

func TestValidate_RejectsExtension(t *testing.T) {
	v := NewValidator(1<<20, nil)
	data := encodeTestImage(t, "png")

	for _, name := range []string{"notes.txt", "image", "archive.png.zip", "trailing.", ""} {
		err := v.Validate(data, name)
		if !errors.Is(err, models.ErrInvalidFileType) {
			t.Errorf("Validate(%q) = %v, expected ErrInvalidFileType", name, err)
		}
	}
}

func TestValidate_ExtensionCheckedBeforeContent(t *testing.T) {
	v := NewValidator(1<<20, nil)

	// Содержимое тоже некорректно, но первой должна сработать проверка расширения
	err := v.Validate([]byte("plain text"), "notes.txt")
	if !errors.Is(err, models.ErrInvalidFileType) {
		t.Errorf("expected ErrInvalidFileType, got %v", err)
	}
}

func TestValidate_OversizedRejectedBeforeDecode(t *testing.T) {
	v := NewValidator(16, nil)

	// Мусор длиннее лимита: декодирование вернуло бы ErrInvalidImageContent
	garbage := bytes.Repeat([]byte{0xFF}, 64)
	err := v.Validate(garbage, "big.png")
	if !errors.Is(err, models.ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestValidate_SizeAtLimitAccepted(t *testing.T) {
	data := encodeTestImage(t, "png")
	v := NewValidator(int64(len(data)), nil)
	if err := v.Validate(data, "exact.png"); err != nil {
		t.Errorf("file exactly at limit should pass: %v", err)
	}
}

func TestValidate_RejectsBadContent(t *testing.T) {
	v := NewValidator(1<<20, nil)

	pngData := encodeTestImage(t, "png")
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("definitely not an image")},
		{"truncated png", pngData[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.data, "photo.png")
			if !errors.Is(err, models.ErrInvalidImageContent) {
				t.Errorf("expected ErrInvalidImageContent, got %v", err)
			}
		})
	}
}

func TestNewValidator_CustomExtensions(t *testing.T) {
	v := NewValidator(1<<20, []string{".PNG"})

	if err := v.CheckExtension("a.png"); err != nil {
		t.Errorf("png should be allowed: %v", err)
	}
	if err := v.CheckExtension("a.jpg"); !errors.Is(err, models.ErrInvalidFileType) {
		t.Errorf("jpg should be rejected, got %v", err)
	}
	if v.MaxBytes() != 1<<20 {
		t.Errorf("unexpected MaxBytes %d", v.MaxBytes())
	}
}
