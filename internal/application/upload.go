package app

import (
	"context"
	"net/http"

	"facade-bot/internal/domain/entity"
)

// UploadService проверяет файл, строит превью и передаёт его в сценарий.
type UploadService struct {
	workflow    *WorkflowService
	previewSide int
}

// NewUploadService создаёт сервис загрузки
func NewUploadService(workflow *WorkflowService, previewSide int) *UploadService {
	return &UploadService{workflow: workflow, previewSide: previewSide}
}

// Accept проверяет тип и размер до любого обращения к сервису.
// Отклонённый файл не меняет состояние сессии.
func (s *UploadService) Accept(ctx context.Context, sessionID string, file entity.ImageFile) (entity.State, error) {
	if file.ContentType == "" && len(file.Data) > 0 {
		file.ContentType = http.DetectContentType(file.Data)
	}
	if err := s.workflow.Policy().Validate(file); err != nil {
		return entity.State{}, err
	}

	preview, err := BuildPreview(file, s.previewSide)
	if err != nil {
		return entity.State{}, err
	}

	return s.workflow.SubmitImage(ctx, sessionID, file, preview)
}

// Remove убирает только локальное превью
func (s *UploadService) Remove(ctx context.Context, sessionID string) (entity.State, error) {
	return s.workflow.ClearPreview(ctx, sessionID)
}
