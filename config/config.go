package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Режимы выгрузки результата
const (
	ExportLocal  = "local"
	ExportRemote = "remote"
)

type Config struct {
	TelegramToken   string
	HTTPAddr        string
	LogMode         string
	SegmentationURL string
	RequestTimeout  time.Duration
	ProgressTick    time.Duration
	ExportMode      string
	Upload          UploadConfig
	RecentColors    int
	SessionTTL      time.Duration
	Redis           RedisConfig
}

type UploadConfig struct {
	MaxSize      int64
	AllowedTypes []string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TELEGRAM_TOKEN", "")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_MODE", "debug")
	v.SetDefault("SEGMENTATION_URL", "http://localhost:8000")
	v.SetDefault("REQUEST_TIMEOUT", 60*time.Second)
	v.SetDefault("PROGRESS_TICK", 200*time.Millisecond)
	v.SetDefault("EXPORT_MODE", ExportLocal)
	v.SetDefault("UPLOAD_MAX_SIZE", 10*1024*1024)
	v.SetDefault("UPLOAD_ALLOWED_TYPES", "image/jpeg,image/png,image/webp")
	v.SetDefault("RECENT_COLORS", 8)
	v.SetDefault("SESSION_TTL", 30*time.Minute)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", 24*time.Hour)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		TelegramToken:   v.GetString("TELEGRAM_TOKEN"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogMode:         v.GetString("LOG_MODE"),
		SegmentationURL: v.GetString("SEGMENTATION_URL"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		ProgressTick:    v.GetDuration("PROGRESS_TICK"),
		ExportMode:      strings.ToLower(v.GetString("EXPORT_MODE")),
		Upload: UploadConfig{
			MaxSize:      v.GetInt64("UPLOAD_MAX_SIZE"),
			AllowedTypes: splitList(v.GetString("UPLOAD_ALLOWED_TYPES")),
		},
		RecentColors: v.GetInt("RECENT_COLORS"),
		SessionTTL:   v.GetDuration("SESSION_TTL"),
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
	}
}

// Validate проверяет значения настроек
func (c *Config) Validate() error {
	var errs []error
	if c.TelegramToken == "" && c.HTTPAddr == "" {
		errs = append(errs, errors.New("either TELEGRAM_TOKEN or HTTP_ADDR is required"))
	}
	if c.SegmentationURL == "" {
		errs = append(errs, errors.New("SEGMENTATION_URL is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout))
	}
	if c.ProgressTick <= 0 {
		errs = append(errs, fmt.Errorf("PROGRESS_TICK must be positive, got %s", c.ProgressTick))
	}
	if c.Upload.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_SIZE must be positive, got %d", c.Upload.MaxSize))
	}
	if len(c.Upload.AllowedTypes) == 0 {
		errs = append(errs, errors.New("UPLOAD_ALLOWED_TYPES is empty"))
	}
	if c.RecentColors <= 0 {
		errs = append(errs, fmt.Errorf("RECENT_COLORS must be positive, got %d", c.RecentColors))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL))
	}
	if c.ExportMode != ExportLocal && c.ExportMode != ExportRemote {
		errs = append(errs, fmt.Errorf("unknown EXPORT_MODE %q", c.ExportMode))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
