package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/handlers"
)

func init() { Register(registerShelf) }

func registerShelf(r chi.Router, d deps.Deps) {
	r.Get("/", handlers.Shelf(d))
	r.Get("/books/{id}/remove", handlers.ConfirmRemove(d))

	w := limited(r, d)
	w.Post("/books", handlers.AddBook(d))
	w.Post("/books/{id}/toggle", handlers.ToggleBook(d))
	w.Post("/books/{id}/remove", handlers.RemoveBook(d))
}
