package segmentation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"facade-bot/internal/domain/entity"
	"facade-bot/internal/domain/port"
)

const maxErrorBody = 4 << 10

// Client HTTP-клиент сервиса сегментации. Состояния не хранит.
type Client struct {
	url    *url.URL
	client *http.Client
	logger *zap.Logger
}

// NewClient создаёт клиента для базового адреса сервиса.
func NewClient(baseURL string, client *http.Client, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid url: %q", baseURL)
	}

	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{url: u, client: client, logger: logger}, nil
}

// Upload отправляет изображение на POST /upload.
func (c *Client) Upload(ctx context.Context, file entity.ImageFile) (*port.UploadResult, error) {
	const op = "upload"

	body, contentType, err := multipartBody(file, nil)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	var resp uploadResponse
	if err := c.do(ctx, op, http.MethodPost, "/upload", contentType, body, &resp); err != nil {
		return nil, err
	}
	if err := checkEnvelope(op, resp.envelope); err != nil {
		return nil, err
	}

	c.logger.Debug("image uploaded",
		zap.String("filename", resp.Filename),
		zap.String("file_id", resp.FileID))

	return &port.UploadResult{FileID: resp.FileID, Filename: resp.Filename}, nil
}

// GenerateMasks отправляет файл и точки клика на POST /generate-masks.
func (c *Client) GenerateMasks(ctx context.Context, file entity.ImageFile, remoteFilename string, points []entity.Point) ([]entity.Mask, error) {
	const op = "generate-masks"

	rawPoints, err := json.Marshal(points)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("encode points: %w", err)}
	}
	fields := map[string]string{"points": string(rawPoints)}
	if remoteFilename != "" {
		fields["filename"] = remoteFilename
	}

	body, contentType, err := multipartBody(file, fields)
	if err != nil {
		return nil, &Error{Op: op, Err: err}
	}

	var resp generateMasksResponse
	if err := c.do(ctx, op, http.MethodPost, "/generate-masks", contentType, body, &resp); err != nil {
		return nil, err
	}
	if err := checkEnvelope(op, resp.envelope); err != nil {
		return nil, err
	}

	masks := make([]entity.Mask, 0, len(resp.Masks))
	for _, m := range resp.Masks {
		outline := m.outline()
		if len(outline) == 0 {
			continue
		}
		mask := entity.Mask{RemoteID: m.remoteID(), Outline: outline}
		if m.Color != "" {
			if color, err := entity.ParseColor(m.Color); err == nil {
				mask.Color = color
			}
		}
		masks = append(masks, mask)
	}

	c.logger.Debug("masks generated",
		zap.Int("points", len(points)),
		zap.Int("masks", len(masks)))

	return masks, nil
}

// ApplyColor отправляет JSON на POST /apply-color.
func (c *Client) ApplyColor(ctx context.Context, remoteFilename string, maskID string, color entity.Color) (*port.ColorResult, error) {
	const op = "apply-color"

	if maskID == "" {
		return nil, &Error{Op: op, Message: "mask id is required"}
	}

	payload, err := json.Marshal(applyColorRequest{MaskID: encodeMaskID(maskID), Color: color.String(), Filename: remoteFilename})
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
	}

	var resp applyColorResponse
	if err := c.do(ctx, op, http.MethodPost, "/apply-color", "application/json", bytes.NewReader(payload), &resp); err != nil {
		return nil, err
	}
	if err := checkEnvelope(op, resp.envelope); err != nil {
		return nil, err
	}

	imageURL := resp.ColoredImageURL
	if imageURL == "" {
		imageURL = resp.OutputFilename
	}
	if imageURL == "" {
		return nil, &Error{Op: op, Message: "response has no colored image"}
	}

	return &port.ColorResult{ImageURL: imageURL}, nil
}

// Download скачивает файл с GET /download/{filename}.
func (c *Client) Download(ctx context.Context, filename string) ([]byte, error) {
	const op = "download"

	if filename == "" {
		return nil, &Error{Op: op, Message: "filename is required"}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url.JoinPath("/download", filename).String(), nil)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("send request: %w", err)}
	}
	defer response.Body.Close()

	if err := checkStatus(op, response); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	return data, nil
}

// Health проверяет доступность сервиса через GET /.
func (c *Client) Health(ctx context.Context) (string, error) {
	var resp healthResponse
	if err := c.do(ctx, "health", http.MethodGet, "/", "", nil, &resp); err != nil {
		return "", err
	}
	if resp.Status != "" {
		return resp.Status, nil
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint, contentType string, body io.Reader, out any) error {
	request, err := http.NewRequestWithContext(ctx, method, c.url.JoinPath(endpoint).String(), body)
	if err != nil {
		return &Error{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	request.Header.Set("Accept", "application/json")

	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("segmentation request failed", zap.String("op", op), zap.Error(err))
		return &Error{Op: op, Err: fmt.Errorf("send request: %w", err)}
	}
	defer response.Body.Close()

	if err := checkStatus(op, response); err != nil {
		c.logger.Warn("segmentation request rejected", zap.String("op", op), zap.Error(err))
		return err
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode response body: %w", err)}
	}

	return nil
}

func checkStatus(op string, response *http.Response) error {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	message := strings.TrimSpace(string(raw))

	var env envelope
	if json.Unmarshal(raw, &env) == nil {
		if m := detailMessage(env); m != "" {
			message = m
		}
	}
	if message == "" {
		message = http.StatusText(response.StatusCode)
	}

	return &Error{Op: op, Status: response.StatusCode, Message: message}
}

func checkEnvelope(op string, env envelope) error {
	if env.Success != nil && !*env.Success {
		message := detailMessage(env)
		if message == "" {
			message = "request was not successful"
		}
		return &Error{Op: op, Message: message}
	}
	return nil
}

func multipartBody(file entity.ImageFile, fields map[string]string) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", fmt.Errorf("write file: %w", err)
	}

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

var _ port.SegmentationService = (*Client)(nil)
