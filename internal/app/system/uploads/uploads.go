// Package uploads stores user files under a single root, either on local
// disk or in an S3-compatible bucket, and resolves public paths back to
// files without escaping that root.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix is the URL prefix uploaded files are served under.
const PublicPrefix = "/static/uploads/"

var (
	// ErrOutsideRoot is returned for paths that resolve outside the root.
	ErrOutsideRoot = errors.New("path escapes upload root")
	// ErrNotFound is returned when a path does not name a regular file.
	ErrNotFound = errors.New("upload not found")
)

// Store is a place uploaded files live. Paths are slash-separated and
// relative to the store root.
type Store interface {
	Put(ctx context.Context, rel string, r io.Reader, contentType string) error
	Open(ctx context.Context, rel string) (*File, error)
	Delete(ctx context.Context, rel string) error
}

// File is an opened upload. The caller must Close it.
type File struct {
	io.ReadSeekCloser
	Name    string
	ModTime time.Time
	Size    int64
}

// cleanRel normalizes rel to a rooted slash path with no ".." segments.
func cleanRel(rel string) string {
	return path.Clean("/" + strings.ReplaceAll(rel, "\\", "/"))
}

// AvatarPath returns a fresh relative path for a user's avatar:
// avatars/<userID>/<uuid>-<sanitized name>.
func AvatarPath(userID, filename string) string {
	return path.Join("avatars", userID, uuid.New().String()+"-"+SanitizeFilename(filename))
}

// PublicURL is the URL a relative upload path is served at.
func PublicURL(rel string) string {
	return PublicPrefix + strings.TrimPrefix(rel, "/")
}

// SanitizeFilename removes or replaces characters that could be problematic in filenames.
func SanitizeFilename(filename string) string {
	filename = filepath.Base(strings.ReplaceAll(filename, "\\", "/"))

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	// storage paths may not contain ".."
	for bytes.Contains(result, []byte("..")) {
		result = bytes.ReplaceAll(result, []byte(".."), []byte("."))
	}
	if len(result) == 0 || strings.Trim(string(result), ".") == "" {
		return "file"
	}
	if len(result) > 100 {
		// keep a short extension
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}
	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
