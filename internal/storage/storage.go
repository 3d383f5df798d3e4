package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// MaxImageSize is the upload limit for screenshots.
const MaxImageSize = 10 << 20 // 10 MiB

// imageExtensions maps accepted content types to the extension files
// are stored under.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store persists uploaded screenshots and hands back the URL clients
// load them from.
type Store interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// ValidateImage rejects uploads that are not images or exceed the size
// limit, before any bytes are read.
func ValidateImage(contentType string, size int64) error {
	if _, ok := imageExtensions[contentType]; !ok {
		return model.Validationf("content_type", "unsupported image type %q", contentType)
	}
	if size > MaxImageSize {
		return model.Validationf("file", "image exceeds %d byte limit", MaxImageSize)
	}
	return nil
}

// Local stores files on disk under dir and serves them under urlPrefix
// (the server mounts dir at that prefix).
type Local struct {
	dir       string
	urlPrefix string
}

// NewLocal creates the storage directory if needed.
func NewLocal(dir, urlPrefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &Local{dir: dir, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

// Dir returns the directory files live in, for the server to mount.
func (l *Local) Dir() string { return l.dir }

// Upload writes the file under a fresh uuid name and returns its URL.
// The size limit is enforced while copying; a lying Content-Length
// cannot get around it.
func (l *Local) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", model.Validationf("content_type", "unsupported image type %q", contentType)
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(l.dir, name)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("writing file: %w", err)
	}
	if n > MaxImageSize {
		os.Remove(dst)
		return "", model.Validationf("file", "image exceeds %d byte limit", MaxImageSize)
	}
	return l.urlPrefix + "/" + name, nil
}

// Delete removes a previously uploaded file. URLs outside the storage
// prefix are rejected; this is not a general file deleter.
func (l *Local) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, l.urlPrefix+"/") {
		return model.Validationf("url", "not a managed file: %s", url)
	}
	name := strings.TrimPrefix(url, l.urlPrefix+"/")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		return model.Validationf("url", "invalid file name")
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
