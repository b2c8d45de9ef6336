package segmentation

import (
	"fmt"
)

// Error единая ошибка обращения к сервису сегментации:
// сетевая, статус не 2xx или success=false в ответе.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("segmentation %s: %v", e.Op, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("segmentation %s: status %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("segmentation %s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func detailMessage(env envelope) string {
	if env.Message != "" {
		return env.Message
	}
	switch d := env.Detail.(type) {
	case string:
		return d
	case nil:
		return ""
	default:
		return fmt.Sprint(d)
	}
}
