package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"facade-bot/internal/domain/entity"
)

func TestPaletteService_Choose(t *testing.T) {
	seg := newFakeSegmenter()
	workflow := newTestWorkflow(t, seg, WorkflowOptions{})
	svc := NewPaletteService(workflow, 2)
	ctx := context.Background()

	_, _ = workflow.SubmitImage(ctx, "s", photo(10), nil)
	_, _ = workflow.RequestMaskAtPoint(ctx, "s", 1, 1)

	_, _, err := svc.Choose(ctx, "s", "coral")
	require.ErrorIs(t, err, entity.ErrNoSelection)

	_, _ = workflow.ToggleMaskSelection(ctx, "s", 1)
	st, c, err := svc.Choose(ctx, "s", "#4ecdc4")
	require.NoError(t, err)
	require.Equal(t, entity.Color("#4ECDC4"), c)
	require.Equal(t, map[int64]entity.Color{1: "#4ECDC4"}, st.AppliedColors)

	_, _, err = svc.Choose(ctx, "s", "#123")
	require.NoError(t, err)

	view := svc.View("s")
	require.Equal(t, []entity.Color{"#112233", "#4ECDC4"}, view.Recent)
	require.NotEmpty(t, view.Presets)
}

func TestPaletteService_InvalidColor(t *testing.T) {
	workflow := newTestWorkflow(t, newFakeSegmenter(), WorkflowOptions{})
	svc := NewPaletteService(workflow, 8)

	_, _, err := svc.Choose(context.Background(), "s", "not-a-color")
	require.ErrorIs(t, err, entity.ErrInvalidColor)
	require.Empty(t, svc.View("s").Recent)
}

func TestPaletteService_Reset(t *testing.T) {
	workflow := newTestWorkflow(t, newFakeSegmenter(), WorkflowOptions{})
	svc := NewPaletteService(workflow, 8)

	_, _, _ = svc.Choose(context.Background(), "s", "mint")
	require.Len(t, svc.View("s").Recent, 1)

	svc.Reset("s")
	require.Empty(t, svc.View("s").Recent)
}
