package entity

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color цвет в формате #RRGGBB (верхний регистр)
type Color string

// ParseColor разбирает #RRGGBB или #RGB.
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return Color("#" + strings.ToUpper(hex)), nil
}

// RGBA возвращает непрозрачный цвет для отрисовки
func (c Color) RGBA() color.RGBA {
	v, err := strconv.ParseUint(strings.TrimPrefix(string(c), "#"), 16, 32)
	if err != nil {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func (c Color) String() string {
	return string(c)
}
