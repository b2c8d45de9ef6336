package entity

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
)

// Point координата в пикселях
type Point struct {
	X float64
	Y float64
}

// MarshalJSON кодирует точку парой [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON принимает пару [x, y].
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("point: expected 2 coordinates, got %d", len(pair))
	}
	p.X, p.Y = pair[0], pair[1]
	return nil
}

// Mask область изображения, найденная сервисом сегментации.
// Контур хранится в координатах исходного изображения.
type Mask struct {
	ID       int64   `json:"id"`
	RemoteID string  `json:"remote_id,omitempty"` // идентификатор маски в сервисе сегментации
	Outline  []Point `json:"coordinates"`
	Color    Color   `json:"color,omitempty"` // цвет, предложенный сервисом
}

// Bounds возвращает ограничивающий прямоугольник контура
func (m Mask) Bounds() image.Rectangle {
	if len(m.Outline) == 0 {
		return image.Rectangle{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range m.Outline {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
}

// Center возвращает центр ограничивающего прямоугольника
func (m Mask) Center() (x, y int) {
	b := m.Bounds()
	return b.Min.X + b.Dx()/2, b.Min.Y + b.Dy()/2
}

// DisplayOutline переводит контур в координаты отображения.
func (m Mask) DisplayOutline(v Viewport) []Point {
	out := make([]Point, len(m.Outline))
	for i, p := range m.Outline {
		out[i] = v.ToDisplay(p)
	}
	return out
}

// RectOutline строит контур прямоугольника x, y, w, h.
func RectOutline(x, y, w, h float64) []Point {
	return []Point{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

func cloneMask(m Mask) Mask {
	m.Outline = append([]Point(nil), m.Outline...)
	return m
}
