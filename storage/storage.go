// Package storage uploads user files to object storage and validates them
// before they leave the server.
package storage

import (
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/config"
)

// Uploader stores files and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error)
	// Delete removes the object behind a URL previously returned by Upload.
	Delete(ctx context.Context, publicURL string) error
}

// New returns the uploader selected by STORAGE_BACKEND, or nil when uploads
// are disabled.
func New(ctx context.Context, cfg *config.Config) (Uploader, error) {
	switch cfg.StorageBackend {
	case "":
		return nil, nil
	case "r2":
		r2, err := NewR2(ctx, R2Options{
			Bucket:       cfg.R2Bucket,
			AccessKeyID:  cfg.R2AccessKeyID,
			SecretKey:    cfg.R2SecretKey,
			Endpoint:     cfg.R2Endpoint,
			PublicDomain: cfg.R2PublicDomain,
		})
		if err != nil {
			return nil, err
		}
		return r2, nil
	case "gcs":
		gcs, err := NewGCS(ctx, cfg.GCSBucket, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return gcs, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// ObjectName builds a unique key below prefix keeping the file extension.
func ObjectName(prefix, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%d-%s%s", strings.Trim(prefix, "/"), now.UTC().Unix(), uuid.NewString(), ext)
}

func contentType(fh *multipart.FileHeader) string {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename)))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}

type FileValidator struct {
	allowedExt  map[string]bool
	allowedMime map[string]bool
	maxSize     int64
}

func NewFileValidator(exts, mimes []string, maxSizeMB int) *FileValidator {
	v := &FileValidator{
		allowedExt:  make(map[string]bool, len(exts)),
		allowedMime: make(map[string]bool, len(mimes)),
		maxSize:     int64(max(maxSizeMB, 1)) << 20,
	}
	for _, ext := range exts {
		if ext = strings.TrimSpace(strings.ToLower(ext)); ext != "" {
			v.allowedExt[ext] = true
		}
	}
	for _, m := range mimes {
		if m = strings.TrimSpace(strings.ToLower(m)); m != "" {
			v.allowedMime[m] = true
		}
	}
	return v
}

func ValidatorFromConfig(cfg *config.Config) *FileValidator {
	return NewFileValidator(cfg.AllowedFileExts, cfg.AllowedFileMimeType, cfg.MaxUploadSizeMB)
}

// ValidateFile checks size, extension and the sniffed content type, and
// returns the detected mime type.
func (v *FileValidator) ValidateFile(fh *multipart.FileHeader) (string, error) {
	if fh.Size > v.maxSize {
		return "", apperrors.Validation(fmt.Sprintf("file too large (max %d MB)", v.maxSize>>20))
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !v.allowedExt[ext] {
		return "", apperrors.Validation("invalid file extension")
	}

	file, err := fh.Open()
	if err != nil {
		return "", apperrors.Internal("open upload", err)
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil || n == 0 {
		return "", apperrors.Validation("failed to read file header")
	}

	detected := strings.ToLower(http.DetectContentType(buffer[:n]))
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = strings.TrimSpace(detected[:i])
	}
	if !v.allowedMime[detected] {
		return "", apperrors.Validation("invalid file type")
	}
	return detected, nil
}
