package geometry

import (
	"image"
	"math"
)

// Box прямоугольник в целых пиксельных координатах
type Box struct {
	X1 int `json:"x1"` // Левый край
	Y1 int `json:"y1"` // Верхний край
	X2 int `json:"x2"` // Правый край
	Y2 int `json:"y2"` // Нижний край
}

// BoxFromCenter переводит центр и размеры рамки в углы.
// Дробная часть координат отбрасывается (усечение к нулю).
func BoxFromCenter(centerX, centerY, width, height float64) Box {
	return Box{
		X1: int(centerX - width/2),
		Y1: int(centerY - height/2),
		X2: int(centerX + width/2),
		Y2: int(centerY + height/2),
	}
}

// Rect возвращает рамку как image.Rectangle
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// RoundTo округляет значение до places знаков после запятой (половина от нуля)
func RoundTo(value float64, places int) float64 {
	factor := math.Pow10(places)
	return math.Round(value*factor) / factor
}

// Round1 округляет значение до одного знака после запятой
func Round1(value float64) float64 {
	return RoundTo(value, 1)
}
