package handlers

import (
	"net/http"

	"ticket-portal/internal/services/media"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type UploadHandler struct {
	uploader *media.Uploader
}

func NewUploadHandler(uploader *media.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Image - relays one image to the media host
func (h *UploadHandler) Image(e *core.RequestEvent) error {
	e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, media.MaxUploadSize+1<<20)

	file, header, err := e.Request.FormFile("file")
	if err != nil {
		return apis.NewBadRequestError("An image file is required", nil)
	}
	defer file.Close()

	if header.Size > media.MaxUploadSize {
		return apis.NewBadRequestError("Images must be 10 MB or smaller.", nil)
	}

	asset, err := h.uploader.Upload(e.Request.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		return apiError("h.uploader.Upload()", err)
	}
	return e.JSON(http.StatusCreated, asset)
}
