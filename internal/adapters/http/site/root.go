// Package site serves the embedded reviewer and admin pages.
package site

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrServe is returned when an embedded page cannot be read.
var ErrServe = errors.New("site serve failed")

// Register attaches the browser pages to mux.
//
//	GET /          -> reviewer page
//	GET /admin     -> admin dashboard
//	GET /static/*  -> page assets
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /{$}", pageHandler("index.html"))
	mux.HandleFunc("GET /admin", pageHandler("admin.html"))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

func pageHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, err := page(name)
		if err != nil {
			http.Error(w, fmt.Errorf("%w: %s: %v", ErrServe, name, err).Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(body)
	}
}
