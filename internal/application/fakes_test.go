package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"facade-bot/internal/domain/entity"
	"facade-bot/internal/domain/port"
	"facade-bot/internal/infrastructure/storage"
)

type fakeSegmenter struct {
	mu sync.Mutex

	uploadErr error
	masks     []entity.Mask
	masksErr  error
	block     chan struct{} // GenerateMasks ждёт закрытия
	started   chan struct{}

	uploads   int
	generates int
	points    []entity.Point
	applied   []string
	downloads []string
}

func newFakeSegmenter() *fakeSegmenter {
	return &fakeSegmenter{
		masks:   []entity.Mask{{Outline: entity.RectOutline(90, 140, 20, 20)}},
		started: make(chan struct{}, 16),
	}
}

func (f *fakeSegmenter) Upload(ctx context.Context, file entity.ImageFile) (*port.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &port.UploadResult{FileID: "id", Filename: "remote-" + file.Name}, nil
}

func (f *fakeSegmenter) GenerateMasks(ctx context.Context, file entity.ImageFile, remote string, points []entity.Point) ([]entity.Mask, error) {
	f.mu.Lock()
	f.generates++
	f.points = append(f.points, points...)
	block := f.block
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.masksErr != nil {
		return nil, f.masksErr
	}
	// сервис нумерует маски по-своему
	out := make([]entity.Mask, len(f.masks))
	for i, m := range f.masks {
		if m.RemoteID == "" {
			m.RemoteID = fmt.Sprintf("r%d", 100+f.generates)
		}
		out[i] = m
	}
	return out, nil
}

func (f *fakeSegmenter) ApplyColor(ctx context.Context, remote string, maskID string, c entity.Color) (*port.ColorResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, maskID)
	return &port.ColorResult{ImageURL: "/download/" + remote + "_colored.png"}, nil
}

func (f *fakeSegmenter) Download(ctx context.Context, filename string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads = append(f.downloads, filename)
	return []byte("\x89PNG\r\n\x1a\n"), nil
}

func (f *fakeSegmenter) generateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generates
}

type fakeRecolorer struct{}

func (fakeRecolorer) Recolor(imageData []byte, masks []entity.Mask, colors map[int64]entity.Color) ([]byte, error) {
	return append([]byte("colored:"), imageData...), nil
}

type memoryCache struct {
	mu    sync.Mutex
	masks map[string][]entity.Mask
}

func (c *memoryCache) key(hash string, p entity.Point) string {
	return fmt.Sprintf("%s:%v:%v", hash, p.X, p.Y)
}

func (c *memoryCache) Get(ctx context.Context, hash string, p entity.Point) ([]entity.Mask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.masks[c.key(hash, p)], nil
}

func (c *memoryCache) Set(ctx context.Context, hash string, p entity.Point, masks []entity.Mask) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.masks == nil {
		c.masks = make(map[string][]entity.Mask)
	}
	c.masks[c.key(hash, p)] = masks
	return nil
}

func newTestWorkflow(t *testing.T, seg *fakeSegmenter, opts WorkflowOptions) *WorkflowService {
	t.Helper()
	if opts.ProgressTick == 0 {
		opts.ProgressTick = time.Hour
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	return NewWorkflowService(storage.NewMemorySessionRepository(), seg, fakeRecolorer{}, nil, opts, nil)
}

func photo(size int) entity.ImageFile {
	return entity.ImageFile{Name: "photo.jpg", ContentType: "image/jpeg", Data: bytes.Repeat([]byte{0xFF}, size)}
}

func pngFile(t *testing.T, w, h int) entity.ImageFile {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return entity.ImageFile{Name: "facade.png", ContentType: "image/png", Data: buf.Bytes()}
}

func newRepo() *storage.MemorySessionRepository {
	return storage.NewMemorySessionRepository()
}

func (s *WorkflowService) lockCount() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.locks)
}
