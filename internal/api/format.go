package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	app "facade-bot/internal/application"
	"facade-bot/internal/domain/entity"
)

var stepTitles = map[entity.Step]string{
	entity.StepUpload:   "Загрузка",
	entity.StepSelect:   "Выбор областей",
	entity.StepColor:    "Цвет",
	entity.StepDownload: "Скачивание",
}

func sessionKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

func parseClick(args string) (x, y float64, err error) {
	fields := strings.Fields(strings.ReplaceAll(args, ",", " "))
	if len(fields) != 2 {
		return 0, 0, errors.New("expected two coordinates")
	}
	if x, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, err
	}
	if y, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, err
	}
	if x < 0 || y < 0 {
		return 0, 0, errors.New("coordinates must not be negative")
	}
	return x, y, nil
}

func parseMaskID(args string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(args), "#"), 10, 64)
}

// userMessage переводит ошибку сценария в текст для пользователя
func userMessage(err error) string {
	switch {
	case errors.Is(err, entity.ErrFileTooLarge):
		return "⚠️ Файл слишком большой."
	case errors.Is(err, entity.ErrUnsupportedType), errors.Is(err, entity.ErrEmptyFile):
		return "⚠️ Поддерживаются только изображения JPEG, PNG и WebP."
	case errors.Is(err, entity.ErrNoImage):
		return "📸 Сначала отправьте фото здания."
	case errors.Is(err, entity.ErrBusy):
		return "⏳ Предыдущий запрос ещё выполняется."
	case errors.Is(err, entity.ErrNoSelection):
		return "☑️ Сначала выберите область: /select id"
	case errors.Is(err, entity.ErrNoColors):
		return "🎨 Сначала назначьте цвет: /color coral"
	case errors.Is(err, entity.ErrUnknownMask):
		return "❓ Такой области нет."
	case errors.Is(err, entity.ErrInvalidColor):
		return "❓ Неизвестный цвет. Список: /palette"
	case errors.Is(err, entity.ErrNoMaskFound):
		return "🔍 В этой точке ничего не найдено."
	case errors.Is(err, entity.ErrStale):
		return "🔄 Сессия изменилась, повторите действие."
	default:
		return "⚠️ Ошибка: " + err.Error()
	}
}

func formatStatus(st entity.State) string {
	status := st.Status()

	var sb strings.Builder
	for _, s := range status.Steps {
		mark := "⬜"
		if s.Completed {
			mark = "✅"
		}
		if s.Current {
			mark += "👉"
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, stepTitles[s.Step])
	}
	if status.Processing {
		fmt.Fprintf(&sb, "⏳ Выполняется: %d%%\n", status.Progress)
	}
	fmt.Fprintf(&sb, "Областей: %d, выбрано: %d, окрашено: %d", status.Masks, status.Selected, status.Applied)

	for _, m := range st.Masks {
		b := m.Bounds()
		line := fmt.Sprintf("\n#%d [%d,%d %dx%d]", m.ID, b.Min.X, b.Min.Y, b.Dx(), b.Dy())
		if st.IsSelected(m.ID) {
			line += " ☑️"
		}
		if c, ok := st.AppliedColors[m.ID]; ok {
			line += " " + c.String()
		}
		sb.WriteString(line)
	}
	if status.Error != "" {
		sb.WriteString("\n⚠️ " + status.Error)
	}
	return sb.String()
}

func formatPalette(view app.PaletteView) string {
	var sb strings.Builder
	sb.WriteString("🎨 Палитра:\n")
	for _, p := range view.Presets {
		fmt.Fprintf(&sb, "%s %s\n", p.Name, p.Color)
	}
	if len(view.Recent) > 0 {
		recent := make([]string, len(view.Recent))
		for i, c := range view.Recent {
			recent[i] = c.String()
		}
		sb.WriteString("Последние: " + strings.Join(recent, " "))
	}
	return strings.TrimRight(sb.String(), "\n")
}
