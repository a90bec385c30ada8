package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

const spaIndexFile = "index.html"

// StaticHandler はSPAのビルド成果物を配信する。
// 静的ディレクトリに存在するファイルはそのまま返し、それ以外はテンプレートのindex.htmlを返す。
type StaticHandler struct {
	static    fs.FS
	templates fs.FS
}

// NewStaticHandler はStaticHandlerを生成する。
func NewStaticHandler(static, templates fs.FS) *StaticHandler {
	return &StaticHandler{static: static, templates: templates}
}

// ServeHTTP はリクエストパスに対応する静的ファイルかindex.htmlを返す。
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	if name != "" && h.static != nil {
		if info, err := fs.Stat(h.static, name); err == nil && !info.IsDir() {
			http.ServeFileFS(w, r, h.static, name)
			return
		}
	}

	if h.templates == nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, h.templates, spaIndexFile)
}
