package rest

import "facade-bot/internal/domain/entity"

// SessionData состояние сессии и сводка для индикатора
type SessionData struct {
	State  entity.State  `json:"state"`
	Status entity.Status `json:"status"`
}

// Response успешный ответ
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse ответ с ошибкой
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type clickRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

type viewportRequest struct {
	Width  int `json:"width" binding:"required,gt=0"`
	Height int `json:"height" binding:"required,gt=0"`
}

type colorRequest struct {
	Color string `json:"color" binding:"required"`
}

func sessionData(st entity.State) SessionData {
	return SessionData{State: st, Status: st.Status()}
}
