package port

import (
	"context"

	"facade-bot/internal/domain/entity"
)

// MaskCache кэш ответов сервиса сегментации.
// Get возвращает nil без ошибки при промахе.
type MaskCache interface {
	Get(ctx context.Context, imageHash string, point entity.Point) ([]entity.Mask, error)
	Set(ctx context.Context, imageHash string, point entity.Point, masks []entity.Mask) error
}
