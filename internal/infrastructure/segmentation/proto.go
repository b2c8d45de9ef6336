package segmentation

import (
	"encoding/json"
	"strconv"
	"strings"

	"facade-bot/internal/domain/entity"
)

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Detail  any    `json:"detail"`
}

type uploadResponse struct {
	envelope
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

type maskPayload struct {
	ID          json.RawMessage `json:"id"`
	Coordinates []entity.Point  `json:"coordinates"`
	Color       string          `json:"color"`
	BBox        []float64       `json:"bbox"`
}

type generateMasksResponse struct {
	envelope
	Masks []maskPayload `json:"masks"`
}

type applyColorRequest struct {
	MaskID   json.RawMessage `json:"mask_id"`
	Color    string          `json:"color"`
	Filename string          `json:"filename,omitempty"`
}

type applyColorResponse struct {
	envelope
	ColoredImageURL string `json:"colored_image_url"`
	OutputFilename  string `json:"output_filename"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// outline возвращает контур маски; bbox превращается в прямоугольник.
func (m maskPayload) outline() []entity.Point {
	if len(m.Coordinates) > 0 {
		return m.Coordinates
	}
	if len(m.BBox) == 4 {
		return entity.RectOutline(m.BBox[0], m.BBox[1], m.BBox[2], m.BBox[3])
	}
	return nil
}

// remoteID возвращает идентификатор маски так, как его выдал сервис.
func (m maskPayload) remoteID() string {
	raw := strings.TrimSpace(string(m.ID))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.ID, &s); err == nil {
		return s
	}
	return raw
}

// encodeMaskID возвращает числовой идентификатор числом, остальные строкой.
func encodeMaskID(id string) json.RawMessage {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.RawMessage(id)
	}
	raw, _ := json.Marshal(id)
	return raw
}
