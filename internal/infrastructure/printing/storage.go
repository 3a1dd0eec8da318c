package printing

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// DocumentStorage stores rendered documents by key
type DocumentStorage interface {
	// Store saves data under key, replacing any existing document
	Store(ctx context.Context, key string, data []byte) (*StoreResult, error)
	// Get opens the document stored under key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the document; missing keys are not an error
	Delete(ctx context.Context, key string) error
	// URL returns a location the document can be fetched from
	URL(ctx context.Context, key string) (string, error)
}

// StoreResult describes a stored document
type StoreResult struct {
	Key  string
	URL  string
	Size int64
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeKeyPart replaces characters outside [A-Za-z0-9._-] with "-"
func SanitizeKeyPart(s string) string {
	s = unsafeKeyChars.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-.")
	if s == "" {
		return "untitled"
	}
	return s
}

// validateKey rejects absolute keys and keys containing ".." segments
func validateKey(key string) error {
	if key == "" {
		return NewRenderError(ErrCodeStorageFailed, "storage key is required", nil)
	}
	if strings.HasPrefix(key, "/") || filepath.IsAbs(key) || containsDotDot(key) {
		return NewRenderError(ErrCodeStorageFailed, "invalid storage key: "+key, nil)
	}
	return nil
}

// containsDotDot reports whether any path segment is ".."
func containsDotDot(p string) bool {
	if !strings.Contains(p, "..") {
		return false
	}
	parts := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
	return slices.Contains(parts, "..")
}

// FileSystemStorage keeps documents under a local directory
type FileSystemStorage struct {
	baseDir string
	baseURL string
	logger  *zap.Logger
}

// NewFileSystemStorage creates baseDir if needed. An empty baseURL makes URL
// return file:// locations.
func NewFileSystemStorage(baseDir, baseURL string, logger *zap.Logger) (*FileSystemStorage, error) {
	if baseDir == "" {
		return nil, NewRenderError(ErrCodeStorageFailed, "output directory is required", nil)
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed,
			fmt.Sprintf("failed to create storage directory: %s", baseDir), err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to resolve storage directory", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystemStorage{baseDir: abs, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}, nil
}

// Store writes the document to baseDir/key
func (s *FileSystemStorage) Store(ctx context.Context, key string, data []byte) (*StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	if len(data) == 0 {
		return nil, NewRenderError(ErrCodeStorageFailed, "document is empty", nil)
	}

	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to create directory", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to write document", err)
	}

	location, _ := s.URL(ctx, key)
	s.logger.Info("Document stored",
		zap.String("path", full),
		zap.Int("size", len(data)))

	return &StoreResult{Key: key, URL: location, Size: int64(len(data))}, nil
}

// Get opens the stored document
func (s *FileSystemStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, NewRenderError(ErrCodeStorageFailed, "failed to open document", err)
	}
	return f, nil
}

// Delete removes the stored document
func (s *FileSystemStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return NewRenderError(ErrCodeStorageFailed, "operation cancelled", err)
	}
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return NewRenderError(ErrCodeStorageFailed, "failed to delete document", err)
	}
	return nil
}

// URL returns baseURL/key, or a file:// URL when no base URL is configured
func (s *FileSystemStorage) URL(_ context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if s.baseURL != "" {
		return s.baseURL + "/" + path.Clean(key), nil
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.baseDir, key))}
	return u.String(), nil
}

// resolve maps key to an absolute path and verifies it stays under baseDir
func (s *FileSystemStorage) resolve(key string) (string, error) {
	if err := validateKey(key); err != nil {
		s.logger.Warn("blocked invalid storage key", zap.String("key", key))
		return "", err
	}
	full := filepath.Join(s.baseDir, filepath.Clean(key))
	if !strings.HasPrefix(full, s.baseDir+string(filepath.Separator)) {
		s.logger.Warn("path escape attempt blocked", zap.String("key", key))
		return "", NewRenderError(ErrCodeStorageFailed, "invalid storage key: "+key, nil)
	}
	return full, nil
}

var _ DocumentStorage = (*FileSystemStorage)(nil)
