// internal/app/features/frontend/handler.go
package frontend

import (
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dalemusser/resolvehub/internal/app/system/jsonutil"
	"github.com/dalemusser/resolvehub/internal/app/system/uploads"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// apiPrefixes never fall back to index.html; an unknown API path is a
// JSON 404, not the SPA shell.
var apiPrefixes = []string{"/api/", "/admin_api/", "/health/", "/static/uploads/"}

// Handler serves uploaded files and the built single-page app.
type Handler struct {
	Uploads uploads.Store
	Dist    string
	Log     *zap.Logger

	assets http.Handler
}

// NewHandler constructs a frontend Handler. dist is the directory holding
// the built SPA (index.html plus assets).
func NewHandler(store uploads.Store, dist string, logger *zap.Logger) *Handler {
	return &Handler{
		Uploads: store,
		Dist:    dist,
		Log:     logger,
		assets:  fileserver.Handler("", dist),
	}
}

// ServeUpload handles GET /static/uploads/*. Only existing regular files
// inside the upload root are served. Local files go through
// http.ServeFile; other backends are streamed.
func (h *Handler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")

	if local, ok := h.Uploads.(*uploads.Local); ok {
		full, err := local.FilePath(r.Context(), rel)
		if err != nil {
			h.uploadNotFound(w, rel, err)
			return
		}
		http.ServeFile(w, r, full)
		return
	}

	f, err := h.Uploads.Open(r.Context(), rel)
	if err != nil {
		h.uploadNotFound(w, rel, err)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, f.Name, f.ModTime, f)
}

func (h *Handler) uploadNotFound(w http.ResponseWriter, rel string, err error) {
	switch {
	case errors.Is(err, uploads.ErrOutsideRoot):
		h.Log.Warn("upload path escapes root", zap.String("path", rel))
	case !errors.Is(err, uploads.ErrNotFound):
		h.Log.Error("open upload failed", zap.String("path", rel), zap.Error(err))
	}
	jsonutil.Error(w, http.StatusNotFound, "File not found")
}

// ServeSPA serves a file from the dist directory when the path names one,
// otherwise index.html so the client-side router can take over.
func (h *Handler) ServeSPA(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		NotFound(w, r)
		return
	}
	for _, p := range apiPrefixes {
		if strings.HasPrefix(r.URL.Path+"/", p) {
			NotFound(w, r)
			return
		}
	}

	if h.isFile(r.URL.Path) {
		h.assets.ServeHTTP(w, r)
		return
	}

	index := filepath.Join(h.Dist, "index.html")
	if fi, err := os.Stat(index); err != nil || !fi.Mode().IsRegular() {
		h.Log.Warn("frontend index.html missing", zap.String("dist", h.Dist))
		jsonutil.Error(w, http.StatusNotFound, "Frontend not built")
		return
	}
	http.ServeFile(w, r, index)
}

// NotFound writes the JSON 404 used for unmatched API routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.Error(w, http.StatusNotFound, "Not found")
}

func (h *Handler) isFile(urlPath string) bool {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		return false
	}
	fi, err := os.Stat(filepath.Join(h.Dist, filepath.FromSlash(clean)))
	return err == nil && fi.Mode().IsRegular()
}
