package blob_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garmentflow/infrastructure/blob"
	"garmentflow/infrastructure/testutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestUploadOpenAndServe(t *testing.T) {
	s := blob.New(testutil.OpenDB(t), "https://files.example.com/")
	ctx := context.Background()

	u, err := s.Upload(ctx, blob.DesignImages, "ACME/d1.png", pngHeader, "")
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/blobs/design-images/ACME/d1.png", u)

	b, err := s.Open(ctx, blob.DesignImages, "ACME/d1.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", b.ContentType)
	assert.Equal(t, pngHeader, b.Data)

	r := chi.NewRouter()
	r.Get("/blobs/{bucket}/*", s.Handler())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blobs/design-images/ACME/d1.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngHeader, rec.Body.Bytes())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blobs/design-images/ACME/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, s.Delete(ctx, blob.DesignImages, "ACME/d1.png"))
	_, err = s.Open(ctx, blob.DesignImages, "ACME/d1.png")
	assert.ErrorIs(t, err, blob.ErrNotFound)
}

func TestUploadBase64_DataURL(t *testing.T) {
	s := blob.New(testutil.OpenDB(t), "")
	ctx := context.Background()

	enc := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngHeader)
	u, err := s.UploadBase64(ctx, blob.DesignImages, "ACME", enc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(u, "/blobs/design-images/ACME/"), u)
	assert.True(t, strings.HasSuffix(u, ".png"), u)

	objectPath := strings.TrimPrefix(u, "/blobs/design-images/")
	b, err := s.Open(ctx, blob.DesignImages, objectPath)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, b.Data)
}

func TestUpload_RejectsBadInput(t *testing.T) {
	s := blob.New(testutil.OpenDB(t), "")
	ctx := context.Background()

	_, err := s.Upload(ctx, blob.DesignImages, "../escape.png", pngHeader, "")
	assert.ErrorIs(t, err, blob.ErrInvalidPath)
	_, err = s.Upload(ctx, "a/b", "x.png", pngHeader, "")
	assert.ErrorIs(t, err, blob.ErrInvalidPath)
	_, err = s.Upload(ctx, blob.DesignImages, "x.png", nil, "")
	assert.ErrorIs(t, err, blob.ErrEmpty)
	_, err = s.Upload(ctx, blob.DesignImages, "x.png", make([]byte, blob.MaxSize+1), "")
	assert.ErrorIs(t, err, blob.ErrTooLarge)
	_, err = s.UploadBase64(ctx, blob.DesignImages, "ACME", "%%%")
	assert.ErrorIs(t, err, blob.ErrBadEncoding)
	_, err = s.UploadBase64(ctx, blob.DesignImages, "ACME", "data:image/png,notbase64")
	assert.ErrorIs(t, err, blob.ErrBadEncoding)
}

func TestDeleteURL(t *testing.T) {
	s := blob.New(testutil.OpenDB(t), "https://files.example.com")
	ctx := context.Background()

	u, err := s.Upload(ctx, blob.DesignImages, "ACME/old photo.png", pngHeader, "")
	require.NoError(t, err)
	keep, err := s.Upload(ctx, blob.DesignImages, "ACME/keep.png", pngHeader, "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteURL(ctx, u))
	_, err = s.Open(ctx, blob.DesignImages, "ACME/old photo.png")
	assert.ErrorIs(t, err, blob.ErrNotFound)

	require.NoError(t, s.DeleteURL(ctx, "https://elsewhere.example.com/blobs/design-images/ACME/keep.png"))
	require.NoError(t, s.DeleteURL(ctx, ""))
	_, err = s.Open(ctx, blob.DesignImages, "ACME/keep.png")
	assert.NoError(t, err, keep)
}
