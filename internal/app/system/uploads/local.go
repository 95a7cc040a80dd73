package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/dalemusser/waffle/pantry/storage"
)

// Local keeps uploads on disk through WAFFLE's local storage backend.
type Local struct {
	fs   *storage.Local
	root string
}

var _ Store = (*Local)(nil)

// NewLocal returns a store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	fs, err := storage.NewLocal(storage.LocalConfig{
		BasePath: dir,
		BaseURL:  strings.TrimSuffix(PublicPrefix, "/"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload root: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	return &Local{fs: fs, root: abs}, nil
}

// Root returns the absolute upload directory.
func (l *Local) Root() string {
	return l.root
}

// FilePath returns the on-disk path of rel when it names an existing
// regular file, for serving with http.ServeFile.
func (l *Local) FilePath(ctx context.Context, rel string) (string, error) {
	if _, err := l.fs.Head(ctx, rel); err != nil {
		return "", mapStorageErr(err)
	}
	full, err := l.fs.GetFullPath(rel)
	if err != nil {
		return "", mapStorageErr(err)
	}
	return full, nil
}

// Open returns rel if it is an existing regular file.
func (l *Local) Open(ctx context.Context, rel string) (*File, error) {
	if _, err := l.fs.Head(ctx, rel); err != nil {
		return nil, mapStorageErr(err)
	}
	rc, info, err := l.fs.GetWithInfo(ctx, rel)
	if err != nil {
		return nil, mapStorageErr(err)
	}
	rsc, ok := rc.(io.ReadSeekCloser)
	if !ok {
		rc.Close()
		return nil, fmt.Errorf("open upload %q: not seekable", rel)
	}
	return &File{
		ReadSeekCloser: rsc,
		Name:           path.Base(info.Path),
		ModTime:        info.LastModified,
		Size:           info.Size,
	}, nil
}

// Put writes r to rel. The backend writes a temp file and renames it, so
// readers never see a partial upload.
func (l *Local) Put(ctx context.Context, rel string, r io.Reader, contentType string) error {
	err := l.fs.Put(ctx, rel, r, &storage.PutOptions{ContentType: contentType})
	if err != nil {
		return mapStorageErr(err)
	}
	return nil
}

// Delete removes rel. A missing file is not an error.
func (l *Local) Delete(ctx context.Context, rel string) error {
	err := l.fs.Delete(ctx, rel)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return mapStorageErr(err)
	}
	return nil
}

func mapStorageErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidPath):
		return ErrOutsideRoot
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	default:
		return err
	}
}
