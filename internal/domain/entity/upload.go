package entity

import (
	"fmt"
	"mime"
	"strings"
)

// ImageFile загруженный пользователем файл
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size размер файла в байтах
func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}

// Preview уменьшенная копия для отображения
type Preview struct {
	Width       int    `json:"width"`  // ширина исходного изображения
	Height      int    `json:"height"` // высота исходного изображения
	ContentType string `json:"content_type"`
	DataURL     string `json:"data_url"`
}

// UploadPolicy ограничения на принимаемые файлы
type UploadPolicy struct {
	AllowedTypes []string
	MaxSize      int64
}

// DefaultUploadPolicy JPEG, PNG и WebP до 10 МБ
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		MaxSize:      10 << 20,
	}
}

// Validate проверяет тип и размер файла.
func (p UploadPolicy) Validate(f ImageFile) error {
	if len(f.Data) == 0 {
		return ErrEmptyFile
	}
	if !p.allows(f.ContentType) {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, f.ContentType)
	}
	if p.MaxSize > 0 && f.Size() > p.MaxSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, f.Size(), p.MaxSize)
	}
	return nil
}

func (p UploadPolicy) allows(contentType string) bool {
	ct := NormalizeContentType(contentType)
	for _, allowed := range p.AllowedTypes {
		if NormalizeContentType(allowed) == ct {
			return true
		}
	}
	return false
}

// NormalizeContentType убирает параметры и приводит image/jpg к image/jpeg.
func NormalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(ct); err == nil {
		ct = parsed
	}
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return "image/jpeg"
	}
	return ct
}
