package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticket-portal/internal/services/media"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uploadEvent(t *testing.T, field, filename string, content []byte) *core.RequestEvent {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendor/uploads/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = httptest.NewRecorder()
	return e
}

func TestUploadHandler_MissingFile(t *testing.T) {
	h := NewUploadHandler(media.NewUploader("http://unused.test", "events", 100))

	err := h.Image(uploadEvent(t, "", "", nil))

	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
}

func TestUploadHandler_RejectsNonImage(t *testing.T) {
	h := NewUploadHandler(media.NewUploader("http://unused.test", "events", 100))

	err := h.Image(uploadEvent(t, "file", "notes.txt", []byte("hello")))

	assert.Equal(t, http.StatusBadRequest, apiStatus(t, err))
}
