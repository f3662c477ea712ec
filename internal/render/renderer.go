package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"furniture-detector-go/internal/config"
	"furniture-detector-go/internal/geometry"
	"furniture-detector-go/internal/summary"
	"furniture-detector-go/pkg/models"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/bmp" // BMP декодер для imaging.Decode
)

const (
	boxThickness       = 2
	labelPadding       = 10 // Запас высоты фона подписи над текстом
	labelBaselineShift = 5  // Базовая линия текста над верхним краем рамки
)

var labelTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// Visualizer строит выходное изображение по исходному и детекциям
type Visualizer interface {
	Render(imageData []byte, detections []models.Detection) ([]byte, error)
	// Annotates сообщает, рисует ли визуализатор рамки
	Annotates() bool
}

// NewVisualizer создает визуализатор для режима из конфигурации
func NewVisualizer(cfg config.RenderConfig, logger *logrus.Logger) Visualizer {
	if cfg.Mode == config.RenderLight {
		logger.Info("Облегченный режим: рамки не рисуются, возвращается исходное изображение")
		return Passthrough{}
	}
	return NewRenderer(cfg.JPEGQuality, logger)
}

// Renderer рисует рамки и подписи на копии изображения
type Renderer struct {
	quality int
	face    font.Face
	logger  *logrus.Logger
}

// NewRenderer создает визуализатор с заданным качеством JPEG
func NewRenderer(quality int, logger *logrus.Logger) *Renderer {
	return &Renderer{
		quality: quality,
		face:    basicfont.Face7x13,
		logger:  logger,
	}
}

// Annotates всегда true для полного режима
func (r *Renderer) Annotates() bool {
	return true
}

// Render декодирует изображение, рисует детекции и кодирует результат в JPEG.
// Исходные байты не изменяются.
func (r *Renderer) Render(imageData []byte, detections []models.Detection) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: ошибка декодирования изображения: %v", models.ErrVisualizationFailed, err)
	}

	canvas := r.annotate(src, detections)

	var buf bytes.Buffer
	if err := imgio.JPEGEncoder(r.quality)(&buf, canvas); err != nil {
		return nil, fmt.Errorf("%w: ошибка кодирования JPEG: %v", models.ErrVisualizationFailed, err)
	}

	r.logger.WithFields(logrus.Fields{
		"detections": len(detections),
		"width":      canvas.Bounds().Dx(),
		"height":     canvas.Bounds().Dy(),
	}).Debug("Визуализация построена")

	return buf.Bytes(), nil
}

// annotate рисует детекции на RGBA копии src
func (r *Renderer) annotate(src image.Image, detections []models.Detection) *image.RGBA {
	canvas := clone.AsRGBA(src)
	origin := canvas.Bounds().Min
	colors := AssignColors(detections)

	for i, d := range detections {
		box := geometry.BoxFromCenter(d.CenterX, d.CenterY, d.Width, d.Height).Rect().Add(origin)
		boxColor := Palette[colors[i]]

		drawOutline(canvas, box, boxColor, boxThickness)
		r.drawLabel(canvas, box.Min, labelFor(d), boxColor)
	}

	return canvas
}

// labelFor формирует подпись "<класс>: <уверенность%>"
func labelFor(d models.Detection) string {
	return fmt.Sprintf("%s: %s", d.Label(), summary.FormatConfidence(d.Confidence))
}

// drawOutline рисует контур рамки толщиной thickness пикселей
func drawOutline(dst draw.Image, rect image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	half := thickness / 2
	outer := image.Rect(rect.Min.X-half, rect.Min.Y-half, rect.Max.X+thickness-half, rect.Max.Y+thickness-half)

	edges := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, outer.Min.Y+thickness), // верх
		image.Rect(outer.Min.X, outer.Max.Y-thickness, outer.Max.X, outer.Max.Y), // низ
		image.Rect(outer.Min.X, outer.Min.Y, outer.Min.X+thickness, outer.Max.Y), // лево
		image.Rect(outer.Max.X-thickness, outer.Min.Y, outer.Max.X, outer.Max.Y), // право
	}
	for _, edge := range edges {
		draw.Draw(dst, edge, src, image.Point{}, draw.Src)
	}
}

// labelBackground прямоугольник фона подписи над верхним левым углом рамки
func (r *Renderer) labelBackground(topLeft image.Point, label string) image.Rectangle {
	width := font.MeasureString(r.face, label).Ceil()
	height := r.face.Metrics().Ascent.Ceil()
	return image.Rect(topLeft.X, topLeft.Y-height-labelPadding, topLeft.X+width, topLeft.Y)
}

// drawLabel рисует залитый фон и белый текст подписи
func (r *Renderer) drawLabel(dst *image.RGBA, topLeft image.Point, label string, bg color.Color) {
	draw.Draw(dst, r.labelBackground(topLeft, label), image.NewUniform(bg), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelTextColor),
		Face: r.face,
		Dot:  fixed.P(topLeft.X, topLeft.Y-labelBaselineShift),
	}
	drawer.DrawString(label)
}

// Passthrough облегченный режим: изображение возвращается без изменений
type Passthrough struct{}

// Render возвращает исходные байты
func (Passthrough) Render(imageData []byte, _ []models.Detection) ([]byte, error) {
	return imageData, nil
}

// Annotates всегда false
func (Passthrough) Annotates() bool {
	return false
}
