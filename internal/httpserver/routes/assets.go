package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookshelf/internal/view"
)

func init() { Register(registerAssets) }

func registerAssets(r chi.Router, d deps.Deps) {
	r.Handle("/static/*", handlers.Static())
	if d.CoversDir != "" {
		r.Handle(view.CoversPrefix+"*", handlers.Covers(d.CoversDir))
	}
}
