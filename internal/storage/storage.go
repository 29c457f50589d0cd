// Package storage keeps uploaded attachments. When the object store is
// unreachable, small uploads are embedded as data URIs so the submission
// still goes through.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"fms/pkg/apperror"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStore accepts an upload under key and returns its retrievable URL.
// Remove deletes the object behind a URL Put returned; other URLs are ignored.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Remove(ctx context.Context, url string) error
}

// LocalStore writes objects below a directory served at publicURL.
type LocalStore struct {
	baseDir   string
	publicURL string
}

func NewLocalStore(baseDir, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{baseDir: baseDir, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, key, _ string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	dst, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, body); err != nil {
		return "", err
	}
	return s.publicURL + "/" + key, nil
}

func (s *LocalStore) Remove(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok {
		return nil
	}
	key = path.Clean(key)
	if key == "." || strings.HasPrefix(key, "../") || path.IsAbs(key) {
		return nil
	}
	err := os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// NewKey builds <prefix>/<yyyy/mm/dd>/<uuid><ext>.
func NewKey(prefix, originalName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return path.Join(prefix, now.Format("2006/01/02"), uuid.NewString()+ext)
}

// File is an upload as received from a client.
type File struct {
	Name string
	Body io.Reader
}

// Uploader validates uploads and applies the data URI fallback.
type Uploader struct {
	store     ObjectStore
	maxBytes  int64
	maxInline int64
	log       *zap.Logger
	now       func() time.Time
}

func NewUploader(store ObjectStore, maxBytes, maxInline int64, log *zap.Logger) *Uploader {
	return &Uploader{store: store, maxBytes: maxBytes, maxInline: maxInline, log: log, now: time.Now}
}

// Save stores f under prefix and returns its URL. A store failure degrades to
// a data URI when the file is small enough to embed.
func (u *Uploader) Save(ctx context.Context, prefix string, f File) (string, error) {
	data, err := io.ReadAll(io.LimitReader(f.Body, u.maxBytes+1))
	if err != nil {
		return "", apperror.Validation("could not read upload %s", f.Name)
	}
	if int64(len(data)) > u.maxBytes {
		return "", apperror.Validation("%s is larger than %d bytes", f.Name, u.maxBytes)
	}
	if len(data) == 0 {
		return "", apperror.Validation("%s is empty", f.Name)
	}

	mime := mimetype.Detect(data)
	if !allowed(mime) {
		return "", apperror.Validation("%s has unsupported type %s", f.Name, mime.String())
	}
	contentType := mime.String()

	key := NewKey(prefix, f.Name, u.now())
	url, err := u.store.Put(ctx, key, contentType, bytes.NewReader(data))
	if err == nil {
		return url, nil
	}

	if int64(len(data)) > u.maxInline {
		u.log.Error("object store upload failed", zap.String("key", key), zap.Error(err))
		return "", apperror.StoreUnavailable(err)
	}
	u.log.Warn("object store upload failed, embedding file",
		zap.String("key", key), zap.Int("bytes", len(data)), zap.Error(err))
	return DataURI(contentType, data), nil
}

// Discard removes stored uploads whose submission failed. Embedded data URIs
// have nothing to remove. Failures are logged, not returned.
func (u *Uploader) Discard(ctx context.Context, urls ...string) {
	for _, url := range urls {
		if url == "" || strings.HasPrefix(url, "data:") {
			continue
		}
		if err := u.store.Remove(ctx, url); err != nil {
			u.log.Warn("could not remove orphaned upload", zap.String("url", url), zap.Error(err))
		}
	}
}

// DataURI encodes data as data:<mime>;base64,<payload>.
func DataURI(contentType string, data []byte) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func allowed(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") || m.Is("application/pdf") {
			return true
		}
	}
	return false
}
