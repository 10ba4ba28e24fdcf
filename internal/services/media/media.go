// Package media relays image uploads to the media-hosting provider.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"ticket-portal/internal/status"

	"github.com/disintegration/imaging"
)

const MaxUploadSize = 10 << 20

// Asset is the provider's record of an uploaded image.
type Asset struct {
	URL      string `json:"secure_url"`
	PublicID string `json:"public_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
	Bytes    int64  `json:"bytes"`
}

type Uploader struct {
	endpoint string
	preset   string
	maxDim   int
	hc       *http.Client
}

func NewUploader(endpoint, preset string, maxDim int) *Uploader {
	if maxDim <= 0 {
		maxDim = 2048
	}
	return &Uploader{
		endpoint: endpoint,
		preset:   preset,
		maxDim:   maxDim,
		hc:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (u *Uploader) Configured() bool {
	return u.endpoint != ""
}

// Upload checks, normalizes and forwards one image.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (*Asset, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, status.Validation("file", "Only image files can be uploaded.")
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, status.Validation("file", "Images must be 10 MB or smaller.")
	}
	if len(data) == 0 {
		return nil, status.Validation("file", "The uploaded file is empty.")
	}

	data, err = u.normalize(data, contentType)
	if err != nil {
		return nil, err
	}
	return u.send(ctx, filename, contentType, data)
}

// normalize auto-orients raster images and fits them within maxDim. Formats
// imaging cannot re-encode are passed through untouched.
func (u *Uploader) normalize(data []byte, contentType string) ([]byte, error) {
	var format imaging.Format
	switch contentType {
	case "image/jpeg", "image/jpg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, status.Validation("file", "The image could not be read.")
	}

	b := img.Bounds()
	if b.Dx() <= u.maxDim && b.Dy() <= u.maxDim && format == imaging.PNG {
		return data, nil
	}
	if b.Dx() > u.maxDim || b.Dy() > u.maxDim {
		img = imaging.Fit(img, u.maxDim, u.maxDim, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("imaging.Encode: %w", err)
	}
	slog.Debug("normalized upload", "from", b.Size().String(), "to", img.Bounds().Size().String(), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (u *Uploader) send(ctx context.Context, filename, contentType string, data []byte) (*Asset, error) {
	if !u.Configured() {
		return nil, status.Upstream("Image uploads are not available right now.", fmt.Errorf("media upload url not configured"))
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if u.preset != "" {
		if err := w.WriteField("upload_preset", u.preset); err != nil {
			return nil, err
		}
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.hc.Do(req)
	if err != nil {
		return nil, status.Upstream("The image could not be uploaded. Please try again.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, status.Upstream("The image could not be uploaded. Please try again.",
			fmt.Errorf("media provider status %d: %s (%s)", resp.StatusCode, strings.TrimSpace(string(msg)), contentType))
	}

	var asset Asset
	if err := json.NewDecoder(resp.Body).Decode(&asset); err != nil {
		return nil, status.Upstream("Unexpected response from the image host.", fmt.Errorf("json.Decode: %w", err))
	}
	return &asset, nil
}

// Dimensions reports the size of an encoded image without decoding pixels.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
