package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"facade-bot/config"
	telegram "facade-bot/internal/api"
	"facade-bot/internal/api/rest"
	app "facade-bot/internal/application"
	"facade-bot/internal/container"
	"facade-bot/internal/domain/entity"
	"facade-bot/internal/domain/port"
	"facade-bot/internal/infrastructure/render"
	"facade-bot/internal/infrastructure/segmentation"
	"facade-bot/internal/infrastructure/storage"
	"facade-bot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("service stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	// Клиент удалённого сервиса сегментации
	segmenter, err := segmentation.NewClient(cfg.SegmentationURL, &http.Client{Timeout: cfg.RequestTimeout}, log.Named("segmentation"))
	if err != nil {
		return fmt.Errorf("create segmentation client: %w", err)
	}
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if status, err := segmenter.Health(healthCtx); err != nil {
		log.Warn("segmentation service is not reachable", zap.String("url", cfg.SegmentationURL), zap.Error(err))
	} else {
		log.Info("segmentation service is up", zap.String("status", status))
	}
	cancel()

	// Кэш масок необязателен
	var cache port.MaskCache
	if cfg.Redis.Addr != "" {
		redisCache := storage.NewRedisMaskCache(storage.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, log.Named("cache"))
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis connection failed, mask cache disabled", zap.Error(err))
		} else {
			log.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
			cache = redisCache
		}
	}

	// Собираем сервисы приложения
	appContainer := container.New(
		storage.NewMemorySessionRepository(),
		segmenter,
		render.NewRecolorer(render.DefaultOpacity),
		cache,
		container.Options{
			Workflow: app.WorkflowOptions{
				Policy: entity.UploadPolicy{
					AllowedTypes: cfg.Upload.AllowedTypes,
					MaxSize:      cfg.Upload.MaxSize,
				},
				RequestTimeout: cfg.RequestTimeout,
				ProgressTick:   cfg.ProgressTick,
				ExportRemote:   cfg.ExportMode == config.ExportRemote,
			},
			RecentColors: cfg.RecentColors,
			PreviewSide:  app.DefaultPreviewSide,
		},
		log.Named("workflow"),
	)

	go appContainer.RunSweeper(ctx, cfg.SessionTTL)

	errCh := make(chan error, 2)
	running := 0

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, log.Named("telegram"))
		if err != nil {
			return fmt.Errorf("create bot: %w", err)
		}
		running++
		go func() {
			log.Info("bot is running")
			errCh <- bot.Run(ctx)
		}()
	}

	if cfg.HTTPAddr != "" {
		mode := "debug"
		if cfg.LogMode == "release" {
			mode = "release"
		}
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           rest.NewRouter(rest.NewHandler(appContainer, log.Named("http")), mode),
			ReadHeaderTimeout: 10 * time.Second,
		}
		running++
		go func() {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
			cancelRun()
		}
	}
	return firstErr
}
