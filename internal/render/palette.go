package render

import (
	"fmt"
	"image/color"

	"furniture-detector-go/pkg/models"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette цвета рамок в порядке назначения классам
var Palette = mustParsePalette(
	"#0000FF", // синий
	"#00FF00", // зеленый
	"#FF0000", // красный
	"#00FFFF", // голубой
	"#FF00FF", // пурпурный
	"#FFFF00", // желтый
	"#800080", // фиолетовый
	"#FFA500", // оранжевый
)

func mustParsePalette(hexes ...string) []color.RGBA {
	palette := make([]color.RGBA, 0, len(hexes))
	for _, hex := range hexes {
		c, err := colorful.Hex(hex)
		if err != nil {
			panic(fmt.Sprintf("render: bad palette color %q: %v", hex, err))
		}
		r, g, b := c.RGB255()
		palette = append(palette, color.RGBA{R: r, G: g, B: b, A: 255})
	}
	return palette
}

// colorAssigner выдает индексы палитры классам в порядке первого появления.
// Создается заново на каждый вызов отрисовки.
type colorAssigner struct {
	size     int
	assigned map[string]int
	next     int
}

func newColorAssigner(size int) *colorAssigner {
	return &colorAssigner{
		size:     size,
		assigned: make(map[string]int),
	}
}

func (a *colorAssigner) indexFor(className string) int {
	if i, ok := a.assigned[className]; ok {
		return i
	}
	i := a.next % a.size
	a.assigned[className] = i
	a.next++
	return i
}

// AssignColors возвращает индекс цвета палитры для каждой детекции.
// Один и тот же класс всегда получает один цвет в пределах вызова.
func AssignColors(detections []models.Detection) []int {
	assigner := newColorAssigner(len(Palette))
	indexes := make([]int, len(detections))
	for i, d := range detections {
		indexes[i] = assigner.indexFor(d.Label())
	}
	return indexes
}
