package app

import (
	"context"
	"sync"

	"facade-bot/internal/domain/entity"
)

// PaletteView готовые и последние цвета сессии
type PaletteView struct {
	Presets []entity.NamedColor `json:"presets"`
	Recent  []entity.Color      `json:"recent"`
}

// PaletteService хранит палитры сессий и передаёт выбранный цвет в сценарий.
type PaletteService struct {
	workflow *WorkflowService
	capacity int

	mu       sync.Mutex
	palettes map[string]*entity.Palette
}

// NewPaletteService создаёт сервис палитры
func NewPaletteService(workflow *WorkflowService, capacity int) *PaletteService {
	return &PaletteService{
		workflow: workflow,
		capacity: capacity,
		palettes: make(map[string]*entity.Palette),
	}
}

// View возвращает палитру сессии
func (s *PaletteService) View(sessionID string) PaletteView {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.palette(sessionID)
	return PaletteView{Presets: p.Presets(), Recent: p.Recent()}
}

// Choose разбирает имя или hex-цвет, запоминает его и назначает выбранным маскам.
func (s *PaletteService) Choose(ctx context.Context, sessionID, input string) (entity.State, entity.Color, error) {
	s.mu.Lock()
	p := s.palette(sessionID)
	c, err := p.Resolve(input)
	if err == nil {
		p.Use(c)
	}
	s.mu.Unlock()

	if err != nil {
		return entity.State{}, "", err
	}

	st, err := s.workflow.AssignColor(ctx, sessionID, c)
	return st, c, err
}

// Reset забывает палитру сессии
func (s *PaletteService) Reset(sessionID string) {
	s.mu.Lock()
	delete(s.palettes, sessionID)
	s.mu.Unlock()
}

func (s *PaletteService) palette(sessionID string) *entity.Palette {
	p, ok := s.palettes[sessionID]
	if !ok {
		p = entity.NewPalette(s.capacity)
		s.palettes[sessionID] = p
	}
	return p
}
