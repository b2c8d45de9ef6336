package entity

import "strings"

// NamedColor готовый цвет палитры
type NamedColor struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// DefaultRecentCapacity размер списка последних цветов по умолчанию
const DefaultRecentCapacity = 8

var presetColors = []NamedColor{
	{"coral", "#FF6B6B"},
	{"turquoise", "#4ECDC4"},
	{"sky", "#45B7D1"},
	{"sage", "#96CEB4"},
	{"cream", "#FFEAA7"},
	{"plum", "#DDA0DD"},
	{"mint", "#98D8C8"},
	{"mustard", "#F7DC6F"},
	{"lavender", "#BB8FCE"},
	{"azure", "#85C1E9"},
	{"apricot", "#F8C471"},
	{"lime", "#82E0AA"},
}

// Palette готовые цвета и ограниченный список последних выбранных
type Palette struct {
	capacity int
	recent   []Color // последний выбранный первым
}

// NewPalette создаёт палитру; capacity <= 0 заменяется значением по умолчанию.
func NewPalette(capacity int) *Palette {
	if capacity <= 0 {
		capacity = DefaultRecentCapacity
	}
	return &Palette{capacity: capacity}
}

// Presets возвращает копию готовых цветов
func (p *Palette) Presets() []NamedColor {
	return append([]NamedColor(nil), presetColors...)
}

// Recent возвращает последние цвета, начиная с самого свежего
func (p *Palette) Recent() []Color {
	return append([]Color(nil), p.recent...)
}

// Resolve принимает имя готового цвета или hex-запись.
func (p *Palette) Resolve(input string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(input))
	for _, preset := range presetColors {
		if preset.Name == name {
			return preset.Color, nil
		}
	}
	return ParseColor(input)
}

// Use поднимает цвет в начало списка, вытесняя самый старый при переполнении.
func (p *Palette) Use(c Color) {
	for i, existing := range p.recent {
		if existing == c {
			p.recent = append(p.recent[:i], p.recent[i+1:]...)
			break
		}
	}
	p.recent = append([]Color{c}, p.recent...)
	if len(p.recent) > p.capacity {
		p.recent = p.recent[:p.capacity]
	}
}
