package entity

import "fmt"

// Step этап сценария пользователя
type Step int

const (
	StepUpload   Step = iota // Ожидание изображения
	StepSelect               // Выбор областей кликом
	StepColor                // Назначение цвета
	StepDownload             // Скачивание результата
)

// Steps возвращает этапы в порядке прохождения
func Steps() []Step {
	return []Step{StepUpload, StepSelect, StepColor, StepDownload}
}

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepSelect:
		return "select"
	case StepColor:
		return "color"
	case StepDownload:
		return "download"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// MarshalText сериализует этап его именем.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText разбирает имя этапа.
func (s *Step) UnmarshalText(text []byte) error {
	for _, step := range Steps() {
		if step.String() == string(text) {
			*s = step
			return nil
		}
	}
	return fmt.Errorf("unknown step %q", text)
}
