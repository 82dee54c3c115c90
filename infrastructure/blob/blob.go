// Package blob stores uploaded files, such as design images, in SQLite and
// serves them under a public URL.
package blob

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"garmentflow/infrastructure/sqlite"
	"garmentflow/models"
)

// DesignImages is the bucket design images go into.
const DesignImages = "design-images"

// MaxSize caps a single upload.
const MaxSize = 8 << 20

var (
	ErrNotFound    = errors.New("blob not found")
	ErrInvalidPath = errors.New("invalid blob path")
	ErrTooLarge    = errors.New("blob too large")
	ErrEmpty       = errors.New("blob is empty")
	ErrBadEncoding = errors.New("blob is not valid base64")
)

type Store struct {
	db      *sqlite.DB
	baseURL string
}

// New returns a store whose public URLs are rooted at baseURL; empty gives
// site-relative URLs.
func New(db *sqlite.DB, baseURL string) *Store {
	return &Store{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload stores data at bucket/objectPath, replacing what was there, and
// returns its public URL.
func (s *Store) Upload(ctx context.Context, bucket, objectPath string, data []byte, contentType string) (string, error) {
	bucket, objectPath, err := clean(bucket, objectPath)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxSize {
		return "", ErrTooLarge
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	now := time.Now().UTC()
	err = s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO blobs (bucket, path, content_type, data, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(bucket, path) DO UPDATE SET
  content_type = excluded.content_type,
  data = excluded.data,
  created_at = excluded.created_at`, bucket, objectPath, contentType, data, now)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("upload blob %s/%s: %w", bucket, objectPath, err)
	}
	return s.PublicURL(bucket, objectPath), nil
}

// UploadBase64 accepts a data URL ("data:image/png;base64,...") or bare
// base64 and stores it under a fresh object name with the given prefix.
func (s *Store) UploadBase64(ctx context.Context, bucket, prefix, encoded string) (string, error) {
	contentType := ""
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		meta, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(meta, ";base64") {
			return "", fmt.Errorf("%w: malformed data url", ErrBadEncoding)
		}
		contentType = strings.TrimSuffix(meta, ";base64")
		encoded = payload
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadEncoding, err)
	}
	return s.Upload(ctx, bucket, ObjectName(prefix, contentType), data, contentType)
}

// ObjectName makes a unique object path under prefix.
func ObjectName(prefix, contentType string) string {
	name := uuid.NewString() + extension(contentType)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func extension(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ""
}

// PublicURL is where a stored object is served.
func (s *Store) PublicURL(bucket, objectPath string) string {
	u := url.URL{Path: "/blobs/" + bucket + "/" + objectPath}
	return s.baseURL + u.EscapedPath()
}

// Open reads an object.
func (s *Store) Open(ctx context.Context, bucket, objectPath string) (models.Blob, error) {
	bucket, objectPath, err := clean(bucket, objectPath)
	if err != nil {
		return models.Blob{}, err
	}
	var b models.Blob
	err = s.db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewSelect().Model(&b).
			Where("bucket = ?", bucket).
			Where("path = ?", objectPath).
			Limit(1).
			Scan(ctx)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Blob{}, ErrNotFound
	}
	return b, err
}

// Delete removes an object; missing objects are not an error.
func (s *Store) Delete(ctx context.Context, bucket, objectPath string) error {
	bucket, objectPath, err := clean(bucket, objectPath)
	if err != nil {
		return err
	}
	return s.db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().Model((*models.Blob)(nil)).
			Where("bucket = ?", bucket).
			Where("path = ?", objectPath).
			Exec(ctx)
		return err
	})
}

// DeleteURL removes the object behind a URL returned by Upload. URLs this
// store did not issue are ignored.
func (s *Store) DeleteURL(ctx context.Context, publicURL string) error {
	bucket, objectPath, ok := s.locate(publicURL)
	if !ok {
		return nil
	}
	return s.Delete(ctx, bucket, objectPath)
}

// locate is the inverse of PublicURL.
func (s *Store) locate(publicURL string) (string, string, bool) {
	rest, ok := strings.CutPrefix(publicURL, s.baseURL+"/blobs/")
	if !ok {
		return "", "", false
	}
	rest, err := url.PathUnescape(rest)
	if err != nil {
		return "", "", false
	}
	bucket, objectPath, found := strings.Cut(rest, "/")
	if !found {
		return "", "", false
	}
	return bucket, objectPath, true
}

// Handler serves GET /blobs/{bucket}/*.
func (s *Store) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := s.Open(r.Context(), chi.URLParam(r, "bucket"), chi.URLParam(r, "*"))
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidPath) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "failed to load file", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", b.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		_, _ = w.Write(b.Data)
	}
}

func clean(bucket, objectPath string) (string, string, error) {
	bucket = strings.TrimSpace(bucket)
	objectPath = strings.TrimPrefix(strings.TrimSpace(objectPath), "/")
	if bucket == "" || strings.ContainsAny(bucket, "/\\") || objectPath == "" {
		return "", "", ErrInvalidPath
	}
	cleaned := path.Clean(objectPath)
	if cleaned != objectPath || strings.HasPrefix(cleaned, "..") {
		return "", "", ErrInvalidPath
	}
	return bucket, cleaned, nil
}
