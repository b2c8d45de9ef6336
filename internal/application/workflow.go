package app

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"facade-bot/internal/domain/entity"
	"facade-bot/internal/domain/port"
)

const (
	progressStep = 10
	progressCap  = 90
)

// WorkflowOptions параметры сценария
type WorkflowOptions struct {
	Policy         entity.UploadPolicy
	RequestTimeout time.Duration
	ProgressTick   time.Duration
	ExportRemote   bool // собирать результат на стороне сервиса
}

// WorkflowService ведёт сценарий upload → select → color → download для каждой сессии.
// Все изменения одной сессии сериализуются её мьютексом, удалённые вызовы
// выполняются без блокировки, а флаг Processing не даёт запустить второй.
type WorkflowService struct {
	repo      port.SessionRepository
	segmenter port.SegmentationService
	recolorer port.Recolorer
	cache     port.MaskCache
	opts      WorkflowOptions
	logger    *zap.Logger

	generation atomic.Uint64

	locksMu sync.Mutex
	locks   map[string]*sessionLock

	subsMu  sync.RWMutex
	subs    map[string]map[uint64]func(entity.State)
	nextSub uint64
}

// NewWorkflowService создаёт сервис сценария. cache может быть nil.
func NewWorkflowService(repo port.SessionRepository, segmenter port.SegmentationService, recolorer port.Recolorer, cache port.MaskCache, opts WorkflowOptions, logger *zap.Logger) *WorkflowService {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if opts.ProgressTick <= 0 {
		opts.ProgressTick = 200 * time.Millisecond
	}
	if len(opts.Policy.AllowedTypes) == 0 {
		opts.Policy = entity.DefaultUploadPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkflowService{
		repo:      repo,
		segmenter: segmenter,
		recolorer: recolorer,
		cache:     cache,
		opts:      opts,
		logger:    logger,
		locks:     make(map[string]*sessionLock),
		subs:      make(map[string]map[uint64]func(entity.State)),
	}
}

// Policy возвращает ограничения на загружаемые файлы
func (s *WorkflowService) Policy() entity.UploadPolicy {
	return s.opts.Policy
}

// State возвращает текущий снимок сессии, создавая её при первом обращении
func (s *WorkflowService) State(ctx context.Context, sessionID string) (entity.State, error) {
	return s.update(ctx, sessionID, false, func(*entity.Session) error { return nil })
}

// Exists сообщает, есть ли сессия в хранилище
func (s *WorkflowService) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.repo.Find(ctx, sessionID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, entity.ErrSessionNotFound):
		return false, nil
	default:
		return false, err
	}
}

// SubmitImage загружает изображение в сервис и переводит сценарий на этап выбора.
// Невалидный файл отклоняется без изменения состояния.
func (s *WorkflowService) SubmitImage(ctx context.Context, sessionID string, file entity.ImageFile, preview *entity.Preview) (entity.State, error) {
	if err := s.opts.Policy.Validate(file); err != nil {
		return entity.State{}, err
	}

	var gen uint64
	if st, err := s.update(ctx, sessionID, true, func(session *entity.Session) error {
		if session.Processing {
			return entity.ErrBusy
		}
		gen = s.generation.Add(1)
		session.Generation = gen
		session.Begin()
		return nil
	}); err != nil {
		return st, err
	}

	stop := s.driveProgress(sessionID, gen)
	callCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	res, err := s.segmenter.Upload(callCtx, file)
	cancel()
	stop()

	return s.finish(ctx, sessionID, func(session *entity.Session) error {
		if session.Generation != gen {
			return entity.ErrStale
		}
		if err != nil {
			s.logger.Warn("upload failed", zap.String("session", sessionID), zap.Error(err))
			session.Fail(err)
			return err
		}
		session.AcceptImage(file, preview, res.Filename)
		session.Complete()
		s.logger.Info("image submitted",
			zap.String("session", sessionID),
			zap.String("file", file.Name),
			zap.String("remote", res.Filename),
			zap.Int64("size", file.Size()))
		return nil
	})
}

// RequestMaskAtPoint запрашивает маску по клику в координатах отображения.
// Без изображения или при незавершённом запросе ничего не делает.
func (s *WorkflowService) RequestMaskAtPoint(ctx context.Context, sessionID string, x, y float64) (entity.State, error) {
	var (
		gen      uint64
		file     entity.ImageFile
		remote   string
		imagePos entity.Point
	)
	if st, err := s.update(ctx, sessionID, true, func(session *entity.Session) error {
		if session.File == nil {
			return entity.ErrNoImage
		}
		if session.Processing {
			return entity.ErrBusy
		}
		gen = session.Generation
		file = *session.File
		remote = session.RemoteFilename
		imagePos = session.Viewport.ToImage(entity.Point{X: x, Y: y})
		session.Begin()
		return nil
	}); err != nil {
		return st, err
	}

	stop := s.driveProgress(sessionID, gen)
	masks, err := s.generateMasks(ctx, file, remote, imagePos)
	stop()

	return s.finish(ctx, sessionID, func(session *entity.Session) error {
		if session.Generation != gen {
			return entity.ErrStale
		}
		if err == nil && len(masks) == 0 {
			err = entity.ErrNoMaskFound
		}
		if err != nil {
			s.logger.Warn("mask request failed",
				zap.String("session", sessionID),
				zap.Float64("x", imagePos.X),
				zap.Float64("y", imagePos.Y),
				zap.Error(err))
			session.Fail(err)
			return err
		}
		mask := session.AppendFound(masks[0])
		session.Complete()
		s.logger.Debug("mask appended", zap.String("session", sessionID), zap.Int64("mask", mask.ID))
		return nil
	})
}

func (s *WorkflowService) generateMasks(ctx context.Context, file entity.ImageFile, remote string, point entity.Point) ([]entity.Mask, error) {
	hash := bytesMD5(file.Data)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, hash, point)
		if err != nil {
			s.logger.Warn("failed to get cached masks", zap.Error(err))
		}
		if len(cached) > 0 {
			s.logger.Debug("mask cache hit", zap.String("image", hash))
			return cached, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()
	masks, err := s.segmenter.GenerateMasks(callCtx, file, remote, []entity.Point{point})
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(masks) > 0 {
		if err := s.cache.Set(ctx, hash, point, masks); err != nil {
			s.logger.Warn("failed to set cached masks", zap.Error(err))
		}
	}
	return masks, nil
}

// ToggleMaskSelection переключает выбор маски без обращения к сервису
func (s *WorkflowService) ToggleMaskSelection(ctx context.Context, sessionID string, maskID int64) (entity.State, error) {
	return s.update(ctx, sessionID, true, func(session *entity.Session) error {
		_, err := session.ToggleSelection(maskID)
		if err != nil {
			return fmt.Errorf("mask %d: %w", maskID, err)
		}
		return nil
	})
}

// AssignColor назначает цвет выбранным маскам.
// Без выбора записывает ошибку и не трогает назначенные цвета.
func (s *WorkflowService) AssignColor(ctx context.Context, sessionID string, color entity.Color) (entity.State, error) {
	return s.update(ctx, sessionID, true, func(session *entity.Session) error {
		if _, err := session.ApplyColor(color); err != nil {
			session.Error = err.Error()
			return err
		}
		return nil
	})
}

// SetDisplaySize задаёт размер изображения на экране пользователя
func (s *WorkflowService) SetDisplaySize(ctx context.Context, sessionID string, width, height int) (entity.State, error) {
	if width <= 0 || height <= 0 {
		return entity.State{}, fmt.Errorf("invalid display size %dx%d", width, height)
	}
	return s.update(ctx, sessionID, true, func(session *entity.Session) error {
		session.Viewport.DisplayWidth = width
		session.Viewport.DisplayHeight = height
		return nil
	})
}

// ClearPreview убирает локальное превью, не затрагивая загруженный файл
func (s *WorkflowService) ClearPreview(ctx context.Context, sessionID string) (entity.State, error) {
	return s.update(ctx, sessionID, true, func(session *entity.Session) error {
		session.ClearPreview()
		return nil
	})
}

// Download собирает перекрашенное изображение.
func (s *WorkflowService) Download(ctx context.Context, sessionID string) (*entity.Export, entity.State, error) {
	var (
		gen    uint64
		file   entity.ImageFile
		remote string
		masks  []entity.Mask
		colors map[int64]entity.Color
	)
	if st, err := s.update(ctx, sessionID, true, func(session *entity.Session) error {
		if session.Processing {
			return entity.ErrBusy
		}
		var err error
		switch {
		case session.File == nil:
			err = entity.ErrNoImage
		case len(session.AppliedColors) == 0:
			err = entity.ErrNoColors
		}
		if err != nil {
			session.Error = err.Error()
			return err
		}
		snap := session.Snapshot()
		gen = session.Generation
		file = *session.File
		remote = session.RemoteFilename
		masks = snap.Masks
		colors = snap.AppliedColors
		session.Begin()
		return nil
	}); err != nil {
		return nil, st, err
	}

	stop := s.driveProgress(sessionID, gen)
	var (
		export *entity.Export
		err    error
	)
	if s.opts.ExportRemote {
		export, err = s.exportRemote(ctx, remote, masks, colors)
	} else {
		export, err = s.exportLocal(file, masks, colors)
	}
	stop()

	st, updErr := s.finish(ctx, sessionID, func(session *entity.Session) error {
		if session.Generation != gen {
			return entity.ErrStale
		}
		if err != nil {
			s.logger.Warn("download failed", zap.String("session", sessionID), zap.Error(err))
			session.Fail(err)
			return err
		}
		session.Complete()
		session.Notice = entity.NoticeDownloadReady
		session.Downloaded = true
		return nil
	})
	if updErr != nil {
		return nil, st, updErr
	}

	s.logger.Info("download ready",
		zap.String("session", sessionID),
		zap.String("file", export.Filename),
		zap.Int("bytes", len(export.Data)))

	return export, st, nil
}

func (s *WorkflowService) exportLocal(file entity.ImageFile, masks []entity.Mask, colors map[int64]entity.Color) (*entity.Export, error) {
	if s.recolorer == nil {
		return nil, errors.New("recolorer is not configured")
	}
	data, err := s.recolorer.Recolor(file.Data, masks, colors)
	if err != nil {
		return nil, fmt.Errorf("recolor: %w", err)
	}
	return &entity.Export{
		Filename:    coloredFilename(file.Name),
		ContentType: "image/png",
		Data:        data,
	}, nil
}

func (s *WorkflowService) exportRemote(ctx context.Context, remote string, masks []entity.Mask, colors map[int64]entity.Color) (*entity.Export, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	defer cancel()

	remoteIDs := make(map[int64]string, len(masks))
	for _, m := range masks {
		remoteIDs[m.ID] = m.RemoteID
	}

	var imageURL string
	for _, id := range sortedIDs(colors) {
		remoteID := remoteIDs[id]
		if remoteID == "" {
			return nil, fmt.Errorf("mask %d: %w", id, entity.ErrNoRemoteMask)
		}
		res, err := s.segmenter.ApplyColor(callCtx, remote, remoteID, colors[id])
		if err != nil {
			return nil, err
		}
		imageURL = res.ImageURL
	}

	name := filenameFromURL(imageURL)
	if name == "" {
		return nil, fmt.Errorf("no file name in colored image url %q", imageURL)
	}
	data, err := s.segmenter.Download(callCtx, name)
	if err != nil {
		return nil, err
	}

	return &entity.Export{
		Filename:    name,
		ContentType: detectContentType(data),
		Data:        data,
	}, nil
}

// Reset завершает сессию; запросы в полёте станут устаревшими.
func (s *WorkflowService) Reset(ctx context.Context, sessionID string) (entity.State, error) {
	l := s.acquire(sessionID)
	err := s.repo.Delete(ctx, sessionID)
	s.release(sessionID, l)
	if err != nil {
		return entity.State{}, fmt.Errorf("delete session: %w", err)
	}

	st := entity.NewSession(sessionID).Snapshot()
	s.notify(sessionID, st)
	return st, nil
}

// SweepIdle удаляет сессии без изменений с момента before.
// Сессии с запросом в полёте пропускаются.
func (s *WorkflowService) SweepIdle(ctx context.Context, before time.Time) ([]string, error) {
	ids, err := s.repo.IdleSince(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("list idle sessions: %w", err)
	}

	var expired []string
	for _, id := range ids {
		l := s.acquire(id)
		session, err := s.repo.Find(ctx, id)
		if err == nil && !session.Processing {
			err = s.repo.Delete(ctx, id)
			if err == nil {
				expired = append(expired, id)
			}
		}
		s.release(id, l)

		if err != nil && !errors.Is(err, entity.ErrSessionNotFound) {
			return expired, fmt.Errorf("expire session %s: %w", id, err)
		}
	}

	for _, id := range expired {
		s.notify(id, entity.NewSession(id).Snapshot())
	}
	if len(expired) > 0 {
		s.logger.Info("idle sessions expired", zap.Int("count", len(expired)))
	}
	return expired, nil
}

// Subscribe подписывает fn на снимки состояния после каждого изменения.
func (s *WorkflowService) Subscribe(sessionID string, fn func(entity.State)) (unsubscribe func()) {
	s.subsMu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[sessionID] == nil {
		s.subs[sessionID] = make(map[uint64]func(entity.State))
	}
	s.subs[sessionID][id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs[sessionID], id)
		if len(s.subs[sessionID]) == 0 {
			delete(s.subs, sessionID)
		}
		s.subsMu.Unlock()
	}
}

// update применяет fn к сессии под её мьютексом и рассылает снимок.
// Ошибка fn возвращается вместе со снимком.
func (s *WorkflowService) update(ctx context.Context, sessionID string, notify bool, fn func(*entity.Session) error) (entity.State, error) {
	return s.apply(ctx, sessionID, s.repo.Get, notify, fn)
}

// finish завершает запрос в полёте. Удалённая за это время сессия
// не создаётся заново: ответ считается устаревшим.
func (s *WorkflowService) finish(ctx context.Context, sessionID string, fn func(*entity.Session) error) (entity.State, error) {
	st, err := s.apply(ctx, sessionID, s.repo.Find, true, fn)
	if errors.Is(err, entity.ErrSessionNotFound) {
		return st, entity.ErrStale
	}
	return st, err
}

func (s *WorkflowService) apply(ctx context.Context, sessionID string, load func(context.Context, string) (*entity.Session, error), notify bool, fn func(*entity.Session) error) (entity.State, error) {
	l := s.acquire(sessionID)

	session, err := load(ctx, sessionID)
	if err != nil {
		s.release(sessionID, l)
		return entity.State{}, fmt.Errorf("get session: %w", err)
	}

	fnErr := fn(session)
	if err := s.repo.Save(ctx, session); err != nil {
		s.release(sessionID, l)
		return entity.State{}, fmt.Errorf("save session: %w", err)
	}
	st := session.Snapshot()
	s.release(sessionID, l)

	if notify {
		s.notify(sessionID, st)
	}
	return st, fnErr
}

func (s *WorkflowService) notify(sessionID string, st entity.State) {
	s.subsMu.RLock()
	fns := make([]func(entity.State), 0, len(s.subs[sessionID]))
	for _, fn := range s.subs[sessionID] {
		fns = append(fns, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range fns {
		fn(st)
	}
}

// sessionLock мьютекс сессии; запись живёт, пока есть ожидающие
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (s *WorkflowService) acquire(sessionID string) *sessionLock {
	s.locksMu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return l
}

func (s *WorkflowService) release(sessionID string, l *sessionLock) {
	l.mu.Unlock()

	s.locksMu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, sessionID)
	}
	s.locksMu.Unlock()
}

// driveProgress поднимает прогресс, пока запрос в полёте
func (s *WorkflowService) driveProgress(sessionID string, gen uint64) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.opts.ProgressTick)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_, _ = s.finish(context.Background(), sessionID, func(session *entity.Session) error {
					if session.Generation != gen || !session.Processing || session.Progress >= progressCap {
						return nil
					}
					session.SetProgress(min(session.Progress+progressStep, progressCap))
					return nil
				})
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

func bytesMD5(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
