package port

import "facade-bot/internal/domain/entity"

// Recolorer накладывает цвета масок на исходное изображение
type Recolorer interface {
	// Recolor возвращает PNG с перекрашенными масками
	Recolor(imageData []byte, masks []entity.Mask, colors map[int64]entity.Color) ([]byte, error)
}
