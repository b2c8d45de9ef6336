package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"facade-bot/internal/domain/entity"
)

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRecolorer_FillsColoredMasksOnly(t *testing.T) {
	r := NewRecolorer(1)
	masks := []entity.Mask{
		{ID: 1, Outline: entity.RectOutline(0, 0, 10, 10)},
		{ID: 2, Outline: entity.RectOutline(10, 10, 10, 10)},
	}

	out, err := r.Recolor(whitePNG(t, 20, 20), masks, map[int64]entity.Color{1: "#FF0000"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 20, 20), img.Bounds())

	cr, cg, cb, _ := img.At(5, 5).RGBA()
	require.Equal(t, []uint32{0xFFFF, 0, 0}, []uint32{cr, cg, cb})

	cr, cg, cb, _ = img.At(15, 15).RGBA()
	require.Equal(t, []uint32{0xFFFF, 0xFFFF, 0xFFFF}, []uint32{cr, cg, cb})
}

func TestRecolorer_BlendsWithOpacity(t *testing.T) {
	r := NewRecolorer(0.5)
	masks := []entity.Mask{{ID: 1, Outline: entity.RectOutline(0, 0, 4, 4)}}

	out, err := r.Recolor(whitePNG(t, 4, 4), masks, map[int64]entity.Color{1: "#000000"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	cr, _, _, _ := img.At(1, 1).RGBA()
	require.InDelta(t, 0x7FFF, cr, 0x300)
}

func TestRecolorer_RejectsGarbage(t *testing.T) {
	_, err := NewRecolorer(0).Recolor([]byte("not an image"), nil, nil)
	require.Error(t, err)
}

func TestNormalizeOpacity(t *testing.T) {
	require.Equal(t, DefaultOpacity, normalizeOpacity(0))
	require.Equal(t, DefaultOpacity, normalizeOpacity(2))
	require.Equal(t, 0.25, normalizeOpacity(0.25))
}
