//go:build !gocv
// +build !gocv

package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"
	_ "golang.org/x/image/webp"

	"facade-bot/internal/domain/entity"
)

// Recolorer заливает контуры масок поверх изображения без OpenCV.
type Recolorer struct {
	Opacity float64
}

// NewRecolorer создаёт отрисовщик с заданной непрозрачностью заливки.
func NewRecolorer(opacity float64) *Recolorer {
	return &Recolorer{Opacity: normalizeOpacity(opacity)}
}

// Recolor накладывает цвет каждой окрашенной маски и возвращает PNG.
func (r *Recolorer) Recolor(imageData []byte, masks []entity.Mask, colors map[int64]entity.Color) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, errors.New("empty image")
	}

	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)

	alpha := uint8(r.Opacity*255 + 0.5)
	for _, mask := range masks {
		c, ok := colors[mask.ID]
		if !ok || len(mask.Outline) < 3 {
			continue
		}

		z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
		z.MoveTo(float32(mask.Outline[0].X), float32(mask.Outline[0].Y))
		for _, p := range mask.Outline[1:] {
			z.LineTo(float32(p.X), float32(p.Y))
		}
		z.ClosePath()

		rgba := c.RGBA()
		fill := image.NewUniform(color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: alpha})
		z.Draw(dst, dst.Bounds(), fill, image.Point{})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
