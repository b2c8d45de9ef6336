package app

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"facade-bot/internal/domain/entity"
)

// DefaultPreviewSide максимальная сторона превью в пикселях
const DefaultPreviewSide = 512

// BuildPreview декодирует файл и строит уменьшенную PNG-копию в виде data URL.
// Width и Height превью равны размерам исходного изображения.
func BuildPreview(file entity.ImageFile, maxSide int) (*entity.Preview, error) {
	src, _, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode image: %v", entity.ErrUnsupportedType, err)
	}
	bounds := src.Bounds()
	if bounds.Empty() {
		return nil, entity.ErrEmptyFile
	}
	if maxSide <= 0 {
		maxSide = DefaultPreviewSide
	}

	w, h := bounds.Dx(), bounds.Dy()
	if w > maxSide || h > maxSide {
		scale := float64(maxSide) / float64(max(w, h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}

	thumb := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(thumb, thumb.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, thumb); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}

	return &entity.Preview{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ContentType: "image/png",
		DataURL:     "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}
