package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/auth"
	"resumeStudio/internal/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type fakeScanner struct {
	err     error
	scanned int
}

func (s *fakeScanner) Scan(_ context.Context, r io.Reader) error {
	s.scanned++
	_, _ = io.Copy(io.Discard, r)
	return s.err
}

func newAssetRouter(session *auth.Session, objects *fakeObjects, scanner Scanner) *gin.Engine {
	h := NewAssetHandler(objects, scanner, slog.Default())
	r := gin.New()
	g := r.Group("/v1/assets", withSession(session))
	g.POST("/photo", h.UploadPhoto)
	g.GET("/view", h.GetAssetURL)
	g.DELETE("", h.DeletePhoto)
	return r
}

func uploadRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/assets/photo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadPhoto(t *testing.T) {
	objects := &fakeObjects{}
	scanner := &fakeScanner{}
	r := newAssetRouter(ada, objects, scanner)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, pngBytes))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, scanner.scanned)
	require.Len(t, objects.uploads, 1)
	up := objects.uploads[0]
	assert.True(t, strings.HasPrefix(up.key, "user-assets/1/"))
	assert.True(t, strings.HasSuffix(up.key, ".png"))
	assert.True(t, storage.IsUserAssetKey(1, up.key))
	assert.Equal(t, "image/png", up.contentType)
	assert.Equal(t, int64(len(pngBytes)), up.size)
	assert.Contains(t, w.Body.String(), up.key)
}

func TestUploadPhoto_Rejections(t *testing.T) {
	t.Run("not an image", func(t *testing.T) {
		objects := &fakeObjects{}
		r := newAssetRouter(ada, objects, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, []byte("#!/bin/sh\necho hi\n")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, objects.uploads)
	})

	t.Run("malicious", func(t *testing.T) {
		objects := &fakeObjects{}
		r := newAssetRouter(ada, objects, &fakeScanner{err: errMalicious})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, pngBytes))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, objects.uploads)
	})

	t.Run("missing file", func(t *testing.T) {
		r := newAssetRouter(ada, &fakeObjects{}, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/assets/photo", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := newAssetRouter(nil, &fakeObjects{}, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, uploadRequest(t, pngBytes))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetAssetURL(t *testing.T) {
	objects := &fakeObjects{}
	r := newAssetRouter(ada, objects, nil)

	w := doJSON(t, r, http.MethodGet, "/v1/assets/view?key=user-assets/1/me.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://objects.example/user-assets/1/me.png")

	w = doJSON(t, r, http.MethodGet, "/v1/assets/view?key=user-assets/2/me.png", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/v1/assets/view", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePhoto(t *testing.T) {
	objects := &fakeObjects{}
	r := newAssetRouter(ada, objects, nil)

	w := doJSON(t, r, http.MethodDelete, "/v1/assets?key=user-assets/2/me.png", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, objects.deleted)

	w = doJSON(t, r, http.MethodDelete, "/v1/assets?key=user-assets/1/me.png", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"user-assets/1/me.png"}, objects.deleted)

	objects.err = errors.New("minio down")
	w = doJSON(t, r, http.MethodDelete, "/v1/assets?key=user-assets/1/me.png", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNewClamdScanner_DisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, NewClamdScanner(""))
	assert.NotNil(t, NewClamdScanner("tcp://127.0.0.1:3310"))
}
