package render

// DefaultOpacity непрозрачность заливки по умолчанию
const DefaultOpacity = 0.6

func normalizeOpacity(opacity float64) float64 {
	if opacity <= 0 || opacity > 1 {
		return DefaultOpacity
	}
	return opacity
}
