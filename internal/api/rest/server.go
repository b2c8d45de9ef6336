package rest

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"facade-bot/internal/container"
	"facade-bot/internal/domain/entity"
)

const sessionParam = "id"

// Handler HTTP-интерфейс сценария для браузерного клиента
type Handler struct {
	app     *container.Container
	logger  *zap.Logger
	maxSize int64
}

// NewHandler создаёт обработчики
func NewHandler(app *container.Container, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		app:     app,
		logger:  logger,
		maxSize: app.Workflow.Policy().MaxSize,
	}
}

// NewRouter собирает gin-роутер со всеми маршрутами
func NewRouter(h *Handler, mode string) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(Logger(h.logger))
	r.Use(CORS())

	r.GET("/", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/sessions", h.CreateSession)

		s := api.Group("/sessions/:"+sessionParam, h.requireSession)
		s.GET("", h.GetSession)
		s.DELETE("", h.ResetSession)
		s.POST("/image", h.UploadImage)
		s.DELETE("/preview", h.RemovePreview)
		s.PUT("/viewport", h.SetViewport)
		s.POST("/masks", h.RequestMask)
		s.POST("/masks/:mask/toggle", h.ToggleMask)
		s.GET("/palette", h.Palette)
		s.POST("/colors", h.AssignColor)
		s.GET("/download", h.Download)
	}

	return r
}

// Health проверка работоспособности
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateSession выдаёт идентификатор новой сессии
func (h *Handler) CreateSession(c *gin.Context) {
	id := uuid.NewString()
	if _, err := h.app.Workflow.State(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: createSessionResponse{SessionID: id}})
}

// GetSession возвращает состояние сессии
func (h *Handler) GetSession(c *gin.Context) {
	st, err := h.app.Workflow.State(c.Request.Context(), c.Param(sessionParam))
	h.respond(c, st, err)
}

// ResetSession завершает сессию
func (h *Handler) ResetSession(c *gin.Context) {
	st, err := h.app.Reset(c.Request.Context(), c.Param(sessionParam))
	h.respond(c, st, err)
}

// UploadImage принимает изображение из поля file
func (h *Handler) UploadImage(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "file field is required", Error: err.Error()})
		return
	}

	if h.maxSize > 0 && header.Size > h.maxSize {
		err := fmt.Errorf("%w: %d bytes, limit %d", entity.ErrFileTooLarge, header.Size, h.maxSize)
		h.fail(c, err)
		return
	}

	f, err := header.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open form file: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, fmt.Errorf("read form file: %w", err))
		return
	}

	file := entity.ImageFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	st, err := h.app.Uploads.Accept(c.Request.Context(), c.Param(sessionParam), file)
	h.respond(c, st, err)
}

// RemovePreview убирает локальное превью
func (h *Handler) RemovePreview(c *gin.Context) {
	st, err := h.app.Uploads.Remove(c.Request.Context(), c.Param(sessionParam))
	h.respond(c, st, err)
}

// SetViewport задаёт размер изображения на экране
func (h *Handler) SetViewport(c *gin.Context) {
	var req viewportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid viewport", Error: err.Error()})
		return
	}
	st, err := h.app.Workflow.SetDisplaySize(c.Request.Context(), c.Param(sessionParam), req.Width, req.Height)
	h.respond(c, st, err)
}

// RequestMask запрашивает маску по клику
func (h *Handler) RequestMask(c *gin.Context) {
	var req clickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid click point", Error: err.Error()})
		return
	}
	st, err := h.app.Workflow.RequestMaskAtPoint(c.Request.Context(), c.Param(sessionParam), *req.X, *req.Y)
	h.respond(c, st, err)
}

// ToggleMask переключает выбор маски
func (h *Handler) ToggleMask(c *gin.Context) {
	maskID, err := strconv.ParseInt(c.Param("mask"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid mask id", Error: err.Error()})
		return
	}
	st, err := h.app.Workflow.ToggleMaskSelection(c.Request.Context(), c.Param(sessionParam), maskID)
	h.respond(c, st, err)
}

// Palette возвращает готовые и последние цвета
func (h *Handler) Palette(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Success: true, Data: h.app.Palettes.View(c.Param(sessionParam))})
}

// AssignColor назначает цвет выбранным маскам
func (h *Handler) AssignColor(c *gin.Context) {
	var req colorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "color is required", Error: err.Error()})
		return
	}
	st, _, err := h.app.Palettes.Choose(c.Request.Context(), c.Param(sessionParam), req.Color)
	h.respond(c, st, err)
}

// Download отдаёт перекрашенное изображение
func (h *Handler) Download(c *gin.Context) {
	export, _, err := h.app.Workflow.Download(c.Request.Context(), c.Param(sessionParam))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, export.ContentType, export.Data)
}

// requireSession пропускает только сессии, выданные CreateSession и ещё не истёкшие
func (h *Handler) requireSession(c *gin.Context) {
	id := c.Param(sessionParam)
	if _, err := uuid.Parse(id); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Message: "invalid session id", Error: err.Error()})
		return
	}

	exists, err := h.app.Workflow.Exists(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		c.Abort()
		return
	}
	if !exists {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Message: http.StatusText(http.StatusNotFound), Error: entity.ErrSessionNotFound.Error()})
		return
	}
	c.Next()
}

func (h *Handler) respond(c *gin.Context, st entity.State, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: sessionData(st)})
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, ErrorResponse{Message: http.StatusText(status), Error: err.Error()})
}
