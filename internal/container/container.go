package container

import (
	"context"
	"time"

	"go.uber.org/zap"

	app "facade-bot/internal/application"
	"facade-bot/internal/domain/entity"
	"facade-bot/internal/domain/port"
)

type Container struct {
	Workflow *app.WorkflowService
	Uploads  *app.UploadService
	Palettes *app.PaletteService

	logger *zap.Logger
}

type Options struct {
	Workflow     app.WorkflowOptions
	RecentColors int
	PreviewSide  int
}

func New(repo port.SessionRepository, segmenter port.SegmentationService, recolorer port.Recolorer, cache port.MaskCache, opts Options, logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	workflow := app.NewWorkflowService(repo, segmenter, recolorer, cache, opts.Workflow, logger)

	return &Container{
		Workflow: workflow,
		Uploads:  app.NewUploadService(workflow, opts.PreviewSide),
		Palettes: app.NewPaletteService(workflow, opts.RecentColors),
		logger:   logger,
	}
}

// Reset завершает сессию вместе с её палитрой
func (c *Container) Reset(ctx context.Context, sessionID string) (entity.State, error) {
	c.Palettes.Reset(sessionID)
	return c.Workflow.Reset(ctx, sessionID)
}

// SweepIdle завершает сессии, не менявшиеся с момента before, вместе с палитрами
func (c *Container) SweepIdle(ctx context.Context, before time.Time) ([]string, error) {
	expired, err := c.Workflow.SweepIdle(ctx, before)
	for _, id := range expired {
		c.Palettes.Reset(id)
	}
	return expired, err
}

// RunSweeper раз в ttl/2 удаляет сессии, простаивающие дольше ttl. Блокирует до отмены ctx.
func (c *Container) RunSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(max(ttl/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := c.SweepIdle(ctx, now.Add(-ttl)); err != nil {
				c.logger.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}
