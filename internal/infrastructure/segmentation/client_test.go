package segmentation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"facade-bot/internal/domain/entity"
)

var testFile = entity.ImageFile{Name: "photo.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, srv.Client(), nil)
	require.NoError(t, err)
	return c
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient("not a url", nil, nil)
	require.Error(t, err)
}

func TestClient_Upload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/upload", r.URL.Path)

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		require.Equal(t, "photo.jpg", hdr.Filename)
		require.Equal(t, "jpeg-bytes", string(data))

		_, _ = w.Write([]byte(`{"success":true,"file_id":"abc","filename":"abc.jpg"}`))
	})

	res, err := c.Upload(context.Background(), testFile)
	require.NoError(t, err)
	require.Equal(t, "abc.jpg", res.Filename)
	require.Equal(t, "abc", res.FileID)
}

func TestClient_UploadApplicationFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"disk full"}`))
	})

	_, err := c.Upload(context.Background(), testFile)
	var segErr *Error
	require.True(t, errors.As(err, &segErr))
	require.Equal(t, "upload", segErr.Op)
	require.Equal(t, "disk full", segErr.Message)
}

func TestClient_UploadStatusFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"detail":"Upload failed: boom"}`))
	})

	_, err := c.Upload(context.Background(), testFile)
	var segErr *Error
	require.True(t, errors.As(err, &segErr))
	require.Equal(t, http.StatusInternalServerError, segErr.Status)
	require.Equal(t, "Upload failed: boom", segErr.Message)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := NewClient(srv.URL, srv.Client(), nil)
	require.NoError(t, err)
	srv.Close()

	_, err = c.Upload(context.Background(), testFile)
	var segErr *Error
	require.True(t, errors.As(err, &segErr))
	require.NotNil(t, segErr.Err)
}

func TestClient_GenerateMasks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/generate-masks", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var points [][]float64
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("points")), &points))
		require.Equal(t, [][]float64{{100, 150}}, points)
		require.Equal(t, "abc.jpg", r.FormValue("filename"))

		_, _ = w.Write([]byte(`{"success":true,"masks":[
			{"id":42,"coordinates":[[1,2],[3,4],[5,6]],"color":"#ff0000"},
			{"id":"wall-1","bbox":[0,0,10,20]},
			{"id":2}
		]}`))
	})

	masks, err := c.GenerateMasks(context.Background(), testFile, "abc.jpg", []entity.Point{{X: 100, Y: 150}})
	require.NoError(t, err)
	require.Len(t, masks, 2)
	require.Equal(t, []entity.Point{{X: 1, Y: 2}, {X: 3, Y: 4}, {X: 5, Y: 6}}, masks[0].Outline)
	require.Equal(t, entity.Color("#FF0000"), masks[0].Color)
	require.Equal(t, entity.RectOutline(0, 0, 10, 20), masks[1].Outline)
	require.Equal(t, "42", masks[0].RemoteID)
	require.Equal(t, "wall-1", masks[1].RemoteID)
	require.Zero(t, masks[0].ID)
}

func TestClient_ApplyColor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/apply-color", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, float64(7), req["mask_id"])
		require.Equal(t, "#FF6B6B", req["color"])

		_, _ = w.Write([]byte(`{"success":true,"colored_image_url":"/download/abc_colored.png"}`))
	})

	res, err := c.ApplyColor(context.Background(), "abc.jpg", "7", "#FF6B6B")
	require.NoError(t, err)
	require.Equal(t, "/download/abc_colored.png", res.ImageURL)
}

func TestClient_ApplyColorSendsRemoteMaskID(t *testing.T) {
	var received []any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/generate-masks":
			_, _ = w.Write([]byte(`{"success":true,"masks":[{"id":42,"bbox":[0,0,5,5]},{"id":"roof","bbox":[5,5,5,5]}]}`))
		case "/apply-color":
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			received = append(received, req["mask_id"])
			_, _ = w.Write([]byte(`{"success":true,"colored_image_url":"/download/abc_colored.png"}`))
		default:
			http.NotFound(w, r)
		}
	})

	masks, err := c.GenerateMasks(context.Background(), testFile, "abc.jpg", []entity.Point{{X: 1, Y: 1}})
	require.NoError(t, err)
	require.Len(t, masks, 2)

	for _, m := range masks {
		_, err := c.ApplyColor(context.Background(), "abc.jpg", m.RemoteID, "#FF6B6B")
		require.NoError(t, err)
	}
	require.Equal(t, []any{float64(42), "roof"}, received)

	_, err = c.ApplyColor(context.Background(), "abc.jpg", "", "#FF6B6B")
	require.Error(t, err)
}

func TestClient_Download(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/abc_colored.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("png"))
	})

	data, err := c.Download(context.Background(), "abc_colored.png")
	require.NoError(t, err)
	require.Equal(t, "png", string(data))

	_, err = c.Download(context.Background(), "missing.png")
	var segErr *Error
	require.True(t, errors.As(err, &segErr))
	require.Equal(t, http.StatusNotFound, segErr.Status)
}

func TestClient_Health(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "healthy", status)
}
