//go:build gocv
// +build gocv

package render

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"facade-bot/internal/domain/entity"
)

// Recolorer заливает контуры масок поверх изображения средствами OpenCV.
type Recolorer struct {
	Opacity float64
}

// NewRecolorer создаёт отрисовщик с заданной непрозрачностью заливки.
func NewRecolorer(opacity float64) *Recolorer {
	return &Recolorer{Opacity: normalizeOpacity(opacity)}
}

// Recolor накладывает цвет каждой окрашенной маски и возвращает PNG.
func (r *Recolorer) Recolor(imageData []byte, masks []entity.Mask, colors map[int64]entity.Color) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	for _, mask := range masks {
		c, ok := colors[mask.ID]
		if !ok || len(mask.Outline) < 3 {
			continue
		}

		poly := make([]image.Point, len(mask.Outline))
		for i, p := range mask.Outline {
			poly[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
		}
		pts := gocv.NewPointsVectorFromPoints([][]image.Point{poly})

		// Заливаем копию и смешиваем с оригиналом, чтобы сохранить фактуру фасада.
		overlay := mat.Clone()
		gocv.FillPoly(&overlay, pts, c.RGBA())
		gocv.AddWeighted(overlay, r.Opacity, mat, 1-r.Opacity, 0, &mat)
		overlay.Close()
		pts.Close()
	}

	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}
