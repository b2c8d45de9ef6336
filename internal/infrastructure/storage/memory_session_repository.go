package storage

import (
	"context"
	"sync"
	"time"

	"facade-bot/internal/domain/entity"
	"facade-bot/internal/domain/port"
)

// MemorySessionRepository in-memory хранилище сессий
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
	touched  map[string]time.Time
	now      func() time.Time
}

// NewMemorySessionRepository создаёт новое in-memory хранилище
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*entity.Session),
		touched:  make(map[string]time.Time),
		now:      time.Now,
	}
}

// Get возвращает сессию по ID, создаёт новую если не найдена
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*entity.Session, error) {
	r.mu.RLock()
	session, exists := r.sessions[id]
	r.mu.RUnlock()

	if exists {
		return session, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Сессию мог создать параллельный запрос
	if session, exists := r.sessions[id]; exists {
		return session, nil
	}

	session = entity.NewSession(id)
	r.sessions[id] = session
	r.touched[id] = r.now()

	return session, nil
}

// Find возвращает сессию, не создавая новую
func (r *MemorySessionRepository) Find(ctx context.Context, id string) (*entity.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, entity.ErrSessionNotFound
	}
	return session, nil
}

// Save сохраняет состояние сессии
func (r *MemorySessionRepository) Save(ctx context.Context, session *entity.Session) error {
	r.mu.Lock()
	r.sessions[session.ID] = session
	r.touched[session.ID] = r.now()
	r.mu.Unlock()

	return nil
}

// Delete удаляет сессию
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	delete(r.touched, id)
	r.mu.Unlock()

	return nil
}

// IdleSince возвращает сессии, последний раз сохранённые раньше before
func (r *MemorySessionRepository) IdleSince(ctx context.Context, before time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, at := range r.touched {
		if at.Before(before) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Len возвращает число сессий
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Проверка реализации интерфейса
var _ port.SessionRepository = (*MemorySessionRepository)(nil)
