package port

import (
	"context"

	"facade-bot/internal/domain/entity"
)

// UploadResult ответ сервиса на загрузку
type UploadResult struct {
	FileID   string
	Filename string
}

// ColorResult ответ сервиса на перекраску
type ColorResult struct {
	ImageURL string
}

// SegmentationService клиент удалённого сервиса сегментации
type SegmentationService interface {
	// Upload передаёт изображение сервису
	Upload(ctx context.Context, file entity.ImageFile) (*UploadResult, error)

	// GenerateMasks запрашивает маски для точек клика в координатах изображения
	GenerateMasks(ctx context.Context, file entity.ImageFile, remoteFilename string, points []entity.Point) ([]entity.Mask, error)

	// ApplyColor перекрашивает маску на стороне сервиса
	ApplyColor(ctx context.Context, remoteFilename string, maskID string, color entity.Color) (*ColorResult, error)

	// Download скачивает файл результата
	Download(ctx context.Context, filename string) ([]byte, error)
}
