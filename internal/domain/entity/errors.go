package entity

import "errors"

// Ошибки валидации файла: удалённый сервис не вызывается.
var (
	ErrEmptyFile       = errors.New("empty file")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file is too large")
)

// Ошибки сценария.
var (
	ErrNoImage      = errors.New("no image submitted")
	ErrBusy         = errors.New("another request is in progress")
	ErrNoSelection  = errors.New("no mask selected")
	ErrNoColors     = errors.New("no colors applied")
	ErrUnknownMask  = errors.New("unknown mask")
	ErrInvalidColor = errors.New("invalid color")
	ErrNoMaskFound  = errors.New("no mask found at point")
	ErrStale        = errors.New("response belongs to a superseded session state")

	ErrSessionNotFound = errors.New("session not found")
	ErrNoRemoteMask    = errors.New("mask has no remote id")
)

// IsValidationError сообщает, что ошибка возникла до обращения к сервису.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyFile) ||
		errors.Is(err, ErrUnsupportedType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrNoSelection) ||
		errors.Is(err, ErrNoColors) ||
		errors.Is(err, ErrInvalidColor)
}
