package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookshelf/internal/view"
)

// Static serves the embedded stylesheet. Mount under /static/.
func Static() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.FS(view.Static())))
}

// Covers serves cover images from dir. Mount under view.CoversPrefix.
// Directory listings are not exposed.
func Covers(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.StripPrefix(view.CoversPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		files.ServeHTTP(w, r)
	}))
}
