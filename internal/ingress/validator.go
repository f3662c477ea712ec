// Package ingress проверяет загруженные файлы до любой дальнейшей обработки.
//
// Проверки выполняются в фиксированном порядке: расширение имени файла,
// размер, затем содержимое. Поэтому файл с неверным расширением отклоняется
// до обращения к сервису детекции, а слишком большой файл до декодирования.
package ingress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF декодер
	_ "image/jpeg" // JPEG декодер
	_ "image/png"  // PNG декодер
	"path/filepath"
	"strings"

	"furniture-detector-go/pkg/models"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp" // BMP декодер
)

// DefaultAllowedExtensions допустимые расширения по умолчанию
var DefaultAllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp"}

// Validator проверяет загруженные изображения
type Validator struct {
	maxBytes int64
	allowed  map[string]struct{}
}

// NewValidator создает валидатор с лимитом размера и списком расширений
func NewValidator(maxBytes int64, extensions []string) *Validator {
	if len(extensions) == 0 {
		extensions = DefaultAllowedExtensions
	}

	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}

	return &Validator{
		maxBytes: maxBytes,
		allowed:  allowed,
	}
}

// MaxBytes возвращает лимит размера файла
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Validate проверяет расширение, размер и содержимое файла
func (v *Validator) Validate(data []byte, filename string) error {
	if err := v.CheckExtension(filename); err != nil {
		return err
	}
	if err := v.CheckSize(int64(len(data))); err != nil {
		return err
	}
	return v.CheckContent(data)
}

// CheckExtension проверяет расширение имени файла без учета регистра
func (v *Validator) CheckExtension(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return fmt.Errorf("%w: у файла %q нет расширения", models.ErrInvalidFileType, filename)
	}
	if _, ok := v.allowed[ext]; !ok {
		return fmt.Errorf("%w: расширение %q не поддерживается", models.ErrInvalidFileType, ext)
	}
	return nil
}

// CheckSize проверяет размер файла
func (v *Validator) CheckSize(size int64) error {
	if size > v.maxBytes {
		return fmt.Errorf("%w: %d байт при лимите %d", models.ErrPayloadTooLarge, size, v.maxBytes)
	}
	return nil
}

// CheckContent проверяет, что данные являются корректным изображением
func (v *Validator) CheckContent(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: пустой файл", models.ErrInvalidImageContent)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return fmt.Errorf("%w: тип содержимого %s", models.ErrInvalidImageContent, mime.String())
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidImageContent, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: изображение %s имеет нулевой размер", models.ErrInvalidImageContent, format)
	}
	return nil
}
