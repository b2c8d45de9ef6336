package port

import (
	"context"
	"time"

	"facade-bot/internal/domain/entity"
)

// SessionRepository интерфейс хранилища сессий
type SessionRepository interface {
	// Get возвращает сессию по ID, создаёт новую если не найдена
	Get(ctx context.Context, id string) (*entity.Session, error)

	// Find возвращает существующую сессию или entity.ErrSessionNotFound
	Find(ctx context.Context, id string) (*entity.Session, error)

	// Save сохраняет состояние сессии
	Save(ctx context.Context, session *entity.Session) error

	// Delete удаляет сессию
	Delete(ctx context.Context, id string) error

	// IdleSince возвращает сессии, не сохранявшиеся с момента before
	IdleSince(ctx context.Context, before time.Time) ([]string, error)
}
