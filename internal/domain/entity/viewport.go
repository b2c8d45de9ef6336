package entity

// Viewport связывает размеры изображения на экране и исходного файла.
// Нулевые размеры дают тождественное преобразование.
type Viewport struct {
	DisplayWidth  int `json:"display_width"`
	DisplayHeight int `json:"display_height"`
	ImageWidth    int `json:"image_width"`
	ImageHeight   int `json:"image_height"`
}

func (v Viewport) scale() (sx, sy float64, ok bool) {
	if v.DisplayWidth <= 0 || v.DisplayHeight <= 0 || v.ImageWidth <= 0 || v.ImageHeight <= 0 {
		return 1, 1, false
	}
	return float64(v.ImageWidth) / float64(v.DisplayWidth), float64(v.ImageHeight) / float64(v.DisplayHeight), true
}

// ToImage переводит клик из координат экрана в координаты изображения.
func (v Viewport) ToImage(p Point) Point {
	sx, sy, ok := v.scale()
	if !ok {
		return p
	}
	return Point{
		X: clamp(p.X*sx, 0, float64(v.ImageWidth-1)),
		Y: clamp(p.Y*sy, 0, float64(v.ImageHeight-1)),
	}
}

// ToDisplay переводит точку контура в координаты экрана.
func (v Viewport) ToDisplay(p Point) Point {
	sx, sy, ok := v.scale()
	if !ok {
		return p
	}
	return Point{X: p.X / sx, Y: p.Y / sy}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
