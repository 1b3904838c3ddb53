package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/handlers"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", handlers.ListBooks(d))
		r.Get("/{id}", handlers.GetBook(d))

		w := limited(r, d)
		w.Post("/", handlers.CreateBook(d))
		w.Post("/{id}/toggle", handlers.ToggleBookAPI(d))
		w.Delete("/{id}", handlers.DeleteBook(d))
	})
}
