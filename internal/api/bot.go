package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"facade-bot/internal/container"
	"facade-bot/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я помогу примерить цвета на фасаде здания.

📸 Отправьте фото здания, затем укажите точки на нём, выберите области и цвет.

📋 Команды:
/click x y — найти область в точке
/select id — выбрать или снять выбор области
/color цвет — покрасить выбранные области
/palette — палитра
/download — получить результат
/status — текущий этап
/reset — начать заново
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото здания (JPEG, PNG или WebP до 10 МБ)
2️⃣ /click 100 150 — бот найдёт область в этой точке
3️⃣ /select 1 — выберите области по номеру
4️⃣ /color coral или /color #FF6B6B — назначьте цвет
5️⃣ /download — получите перекрашенное изображение`

	msgSendPhoto       = "📸 Пожалуйста, отправьте фото здания."
	msgUnknownCommand  = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing      = "⏳ Загружаю изображение..."
	msgSearching       = "⏳ Ищу область..."
	msgReset           = "🔄 Сессия сброшена. Отправьте новое фото."
	msgProcessingError = "⚠️ Не удалось обработать изображение. Попробуйте ещё раз."
	msgUploaded        = "✅ Изображение загружено (%dx%d). Укажите точку: /click x y"
	msgMaskAdded       = "✅ Найдена область #%d. Выберите её: /select %d"
	msgSelected        = "☑️ Область #%d выбрана."
	msgUnselected      = "⬜ Выбор области #%d снят."
	msgColored         = "🎨 Цвет %s назначен. Скачать результат: /download"
	msgUsageClick      = "Использование: /click x y"
	msgUsageSelect     = "Использование: /select id"
	msgUsageColor      = "Использование: /color coral или /color #FF6B6B"
)

// maxConcurrentUpdates сколько обновлений обрабатывается одновременно
const maxConcurrentUpdates = 32

// Bot представляет Telegram-бота; каждый чат ведёт свою сессию
type Bot struct {
	api      *tgbotapi.BotAPI
	app      *container.Container
	logger   *zap.Logger
	http     *http.Client
	maxBytes int64
	dispatch *dispatcher
}

// NewBot создаёт нового бота
func NewBot(token string, app *container.Container, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	logger.Info("authorized on account", zap.String("username", api.Self.UserName))

	return &Bot{
		api:      api,
		app:      app,
		logger:   logger,
		http:     http.DefaultClient,
		maxBytes: app.Workflow.Policy().MaxSize,
		dispatch: newDispatcher(maxConcurrentUpdates),
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.dispatch.Wait()
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			// Долгий запрос одного чата не задерживает остальные
			msg := update.Message
			if !b.dispatch.Go(ctx, func() { b.handleMessage(ctx, msg) }) {
				return nil
			}
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	sessionID := sessionKey(msg.Chat.ID)

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, sessionID)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		b.handleImage(ctx, msg.Chat.ID, sessionID, photo.FileID, "photo.jpg", "image/jpeg", int64(photo.FileSize))
		return
	}

	// Изображение, отправленное файлом
	if doc := msg.Document; doc != nil && strings.HasPrefix(doc.MimeType, "image/") {
		b.handleImage(ctx, msg.Chat.ID, sessionID, doc.FileID, doc.FileName, doc.MimeType, int64(doc.FileSize))
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, sessionID string) {
	chatID := msg.Chat.ID
	args := msg.CommandArguments()

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "click":
		x, y, err := parseClick(args)
		if err != nil {
			b.sendMessage(chatID, msgUsageClick)
			return
		}
		b.sendMessage(chatID, msgSearching)
		st, err := b.app.Workflow.RequestMaskAtPoint(ctx, sessionID, x, y)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		mask := st.Masks[len(st.Masks)-1]
		b.sendMessage(chatID, fmt.Sprintf(msgMaskAdded, mask.ID, mask.ID))

	case "select":
		id, err := parseMaskID(args)
		if err != nil {
			b.sendMessage(chatID, msgUsageSelect)
			return
		}
		st, err := b.app.Workflow.ToggleMaskSelection(ctx, sessionID, id)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		if st.IsSelected(id) {
			b.sendMessage(chatID, fmt.Sprintf(msgSelected, id))
		} else {
			b.sendMessage(chatID, fmt.Sprintf(msgUnselected, id))
		}

	case "color":
		if strings.TrimSpace(args) == "" {
			b.sendMessage(chatID, msgUsageColor)
			return
		}
		_, c, err := b.app.Palettes.Choose(ctx, sessionID, args)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgColored, c))

	case "palette":
		b.sendMessage(chatID, formatPalette(b.app.Palettes.View(sessionID)))

	case "status":
		st, err := b.app.Workflow.State(ctx, sessionID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, formatStatus(st))

	case "download":
		b.handleDownload(ctx, chatID, sessionID)

	case "reset", "cancel":
		if _, err := b.app.Reset(ctx, sessionID); err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, msgReset)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

// handleImage скачивает изображение и передаёт его в сценарий
func (b *Bot) handleImage(ctx context.Context, chatID int64, sessionID, fileID, name, contentType string, size int64) {
	if b.maxBytes > 0 && size > b.maxBytes {
		b.sendError(chatID, fmt.Errorf("%w: %d bytes", entity.ErrFileTooLarge, size))
		return
	}

	b.sendMessage(chatID, msgProcessing)

	imageData, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.logger.Error("error downloading photo", zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
		return
	}

	file := entity.ImageFile{Name: name, ContentType: contentType, Data: imageData}
	st, err := b.app.Uploads.Accept(ctx, sessionID, file)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	b.sendMessage(chatID, fmt.Sprintf(msgUploaded, st.Viewport.ImageWidth, st.Viewport.ImageHeight))
}

// handleDownload собирает результат и отправляет его документом
func (b *Bot) handleDownload(ctx context.Context, chatID int64, sessionID string) {
	export, _, err := b.app.Workflow.Download(ctx, sessionID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: export.Filename, Bytes: export.Data})
	if _, err := b.api.Send(doc); err != nil {
		b.logger.Error("error sending document", zap.Error(err))
		b.sendMessage(chatID, msgProcessingError)
	}
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendError сообщает пользователю об ошибке
func (b *Bot) sendError(chatID int64, err error) {
	if !entity.IsValidationError(err) && !errors.Is(err, entity.ErrBusy) && !errors.Is(err, entity.ErrNoImage) {
		b.logger.Warn("workflow error", zap.Int64("chat", chatID), zap.Error(err))
	}
	b.sendMessage(chatID, userMessage(err))
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("error sending message", zap.Error(err))
	}
}
