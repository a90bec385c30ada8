package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
)

func testStaticHandler() *StaticHandler {
	static := fstest.MapFS{
		"main.js":          {Data: []byte("console.log('app')")},
		"assets/style.css": {Data: []byte("body{}")},
	}
	templates := fstest.MapFS{
		"index.html": {Data: []byte("<!doctype html><div id=app></div>")},
	}
	return NewStaticHandler(static, templates)
}

func serveStatic(h http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestStaticHandler_ExistingFile_ServedFromStaticDir(t *testing.T) {
	h := testStaticHandler()

	tests := []struct {
		target string
		body   string
	}{
		{"/main.js", "console.log('app')"},
		{"/assets/style.css", "body{}"},
	}
	for _, tt := range tests {
		w := serveStatic(h, tt.target)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", tt.target, w.Code, http.StatusOK)
		}
		if w.Body.String() != tt.body {
			t.Errorf("GET %s body = %q, want %q", tt.target, w.Body.String(), tt.body)
		}
	}
}

func TestStaticHandler_UnknownPath_FallsBackToIndex(t *testing.T) {
	h := testStaticHandler()

	for _, target := range []string{"/", "/articles/climate", "/missing.js", "/assets"} {
		w := serveStatic(h, target)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", target, w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), `<div id=app>`) {
			t.Errorf("GET %s should serve index.html, got %q", target, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("GET %s Content-Type = %q, want text/html", target, ct)
		}
	}
}

func TestStaticHandler_NoTemplates_Returns404(t *testing.T) {
	h := NewStaticHandler(fstest.MapFS{}, nil)

	if w := serveStatic(h, "/anything"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
