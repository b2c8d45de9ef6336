package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"facade-bot/internal/domain/entity"
	"facade-bot/internal/domain/port"
)

// RedisConfig параметры подключения к redis
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisMaskCache кэширует маски по хэшу изображения и точке клика
type RedisMaskCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisMaskCache создаёт кэш поверх redis
func NewRedisMaskCache(cfg RedisConfig, logger *zap.Logger) *RedisMaskCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisMaskCache{client: client, ttl: cfg.TTL, logger: logger}
}

// Ping проверяет соединение
func (c *RedisMaskCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get возвращает маски из кэша или nil при промахе
func (c *RedisMaskCache) Get(ctx context.Context, imageHash string, point entity.Point) ([]entity.Mask, error) {
	data, err := c.client.Get(ctx, maskKey(imageHash, point)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var masks []entity.Mask
	if err := json.Unmarshal(data, &masks); err != nil {
		c.logger.Error("failed to unmarshal cached masks",
			zap.String("image", imageHash), zap.Error(err))
		return nil, err
	}

	return masks, nil
}

// Set сохраняет маски в кэш
func (c *RedisMaskCache) Set(ctx context.Context, imageHash string, point entity.Point, masks []entity.Mask) error {
	data, err := json.Marshal(masks)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, maskKey(imageHash, point), data, c.ttl).Err()
}

// Close закрывает соединение
func (c *RedisMaskCache) Close() error {
	return c.client.Close()
}

func maskKey(imageHash string, point entity.Point) string {
	return fmt.Sprintf("masks:%s:%.0f:%.0f", imageHash, point.X, point.Y)
}

var _ port.MaskCache = (*RedisMaskCache)(nil)
