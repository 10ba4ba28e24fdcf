package media

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ticket-portal/internal/status"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encoded(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func provider(t *testing.T, got *image.Point) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(MaxUploadSize))
		assert.Equal(t, "events", r.FormValue("upload_preset"))

		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		width, height, err := Dimensions(data)
		require.NoError(t, err)
		*got = image.Pt(width, height)

		json.NewEncoder(w).Encode(Asset{URL: "https://cdn.test/img.jpg", PublicID: "img", Width: width, Height: height})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUpload_DownscalesLargeImages(t *testing.T) {
	var got image.Point
	srv := provider(t, &got)
	u := NewUploader(srv.URL, "events", 100)

	asset, err := u.Upload(context.Background(), "banner.jpg", "image/jpeg", bytes.NewReader(encoded(t, 400, 200, imaging.JPEG)))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/img.jpg", asset.URL)
	assert.Equal(t, image.Pt(100, 50), got)
}

func TestUpload_KeepsSmallPNG(t *testing.T) {
	var got image.Point
	srv := provider(t, &got)
	u := NewUploader(srv.URL, "events", 100)

	_, err := u.Upload(context.Background(), "logo.png", "image/png", bytes.NewReader(encoded(t, 40, 30, imaging.PNG)))

	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 30), got)
}

func TestUpload_Rejects(t *testing.T) {
	u := NewUploader("http://unused.test", "events", 100)

	_, err := u.Upload(context.Background(), "doc.pdf", "application/pdf", strings.NewReader("%PDF"))
	assert.ErrorIs(t, err, status.ErrValidation)

	_, err = u.Upload(context.Background(), "big.jpg", "image/jpeg", bytes.NewReader(make([]byte, MaxUploadSize+1)))
	assert.ErrorIs(t, err, status.ErrValidation)
	assert.Equal(t, "file", status.FieldOf(err))

	_, err = u.Upload(context.Background(), "broken.png", "image/png", strings.NewReader("not a png"))
	assert.ErrorIs(t, err, status.ErrValidation)
}

func TestUpload_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid preset"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := NewUploader(srv.URL, "bad", 0).Upload(context.Background(), "a.png", "image/png", bytes.NewReader(encoded(t, 4, 4, imaging.PNG)))

	assert.ErrorIs(t, err, status.ErrUpstreamProvider)
}

func TestUpload_NotConfigured(t *testing.T) {
	_, err := NewUploader("", "", 0).Upload(context.Background(), "a.png", "image/png", bytes.NewReader(encoded(t, 4, 4, imaging.PNG)))

	assert.ErrorIs(t, err, status.ErrUpstreamProvider)
}
