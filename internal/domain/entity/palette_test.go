package entity

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff6b6b")
	require.NoError(t, err)
	require.Equal(t, Color("#FF6B6B"), c)
	require.Equal(t, color.RGBA{R: 0xFF, G: 0x6B, B: 0x6B, A: 0xFF}, c.RGBA())

	c, err = ParseColor("abc")
	require.NoError(t, err)
	require.Equal(t, Color("#AABBCC"), c)

	for _, bad := range []string{"", "#12", "#GGGGGG", "#1234567"} {
		_, err := ParseColor(bad)
		require.ErrorIs(t, err, ErrInvalidColor, bad)
	}
}

func TestPaletteResolve(t *testing.T) {
	p := NewPalette(0)
	c, err := p.Resolve("Coral")
	require.NoError(t, err)
	require.Equal(t, Color("#FF6B6B"), c)

	c, err = p.Resolve("#123456")
	require.NoError(t, err)
	require.Equal(t, Color("#123456"), c)

	_, err = p.Resolve("rainbow")
	require.ErrorIs(t, err, ErrInvalidColor)
}

func TestPaletteRecentEvictsOldest(t *testing.T) {
	p := NewPalette(8)
	for i := 0; i < 10; i++ {
		p.Use(Color(fmt.Sprintf("#0000%02X", i)))
	}
	recent := p.Recent()
	require.Len(t, recent, 8)
	require.Equal(t, Color("#000009"), recent[0])
	require.Equal(t, Color("#000002"), recent[7])
}

func TestPaletteRecentMovesExistingToFront(t *testing.T) {
	p := NewPalette(3)
	p.Use("#000001")
	p.Use("#000002")
	p.Use("#000001")
	require.Equal(t, []Color{"#000001", "#000002"}, p.Recent())
}
