// Package site serves the embedded browser front end.
package site

import (
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// IndexFile is served for every GET path that is not an embedded asset.
const IndexFile = "index.html"

// Error constants.
var (
	ErrServe = errors.New("site serve failed")
)

// Handler serves embedded assets by path and falls back to the index page,
// so client-side routes always load the app.
type Handler struct {
	files fs.FS
}

// NewHandler creates a handler over the embedded site.
func NewHandler() *Handler {
	return NewHandlerFS(FS())
}

// NewHandlerFS creates a handler over files. It panics when files is nil.
func NewHandlerFS(files fs.FS) *Handler {
	if files == nil {
		panic("site: nil filesystem")
	}
	return &Handler{files: files}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" || !h.isFile(name) {
		name = IndexFile
	}
	http.ServeFileFS(w, r, h.files, name)
}

func (h *Handler) isFile(name string) bool {
	info, err := fs.Stat(h.files, name)
	return err == nil && !info.IsDir()
}
