package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/command"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
)

// Shelf renders the board with its unread and read shelves.
func Shelf(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, d.Logger, http.StatusOK, func(out io.Writer) error {
			return d.Renderer.Shelf(out, d.Board, d.PageTitle)
		})
	}
}

// AddBook handles the new-book form.
func AddBook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		d.Dispatcher.Add(r.Context(), addFromForm(r.PostForm))
		backToShelf(w, r)
	}
}

// addFromForm maps the new-book form. The cover input only carries a local
// file name, so it is not kept.
func addFromForm(form url.Values) command.AddBook {
	return command.AddBook{
		Title:   form.Get("title"),
		Author:  form.Get("author"),
		Pages:   form.Get("pages"),
		Genre:   form.Get("genre"),
		Release: form.Get("release"),
		Read:    checked(form, "read"),
	}
}

// checked follows checkbox semantics: present means on unless it says otherwise.
func checked(form url.Values, key string) bool {
	if _, ok := form[key]; !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(form.Get(key))) {
	case "false", "off", "0", "no":
		return false
	}
	return true
}

// ToggleBook flips the read state of a book. Unknown ids are ignored.
func ToggleBook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Dispatcher.ToggleRead(r.Context(), command.ToggleRead{ID: chi.URLParam(r, "id")})
		backToShelf(w, r)
	}
}

// ConfirmRemove asks the user before deleting a book.
func ConfirmRemove(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, ok := d.Board.Card(chi.URLParam(r, "id"))
		if !ok {
			writeHTML(w, d.Logger, http.StatusNotFound, func(out io.Writer) error {
				return d.Renderer.Missing(out, d.PageTitle)
			})
			return
		}
		writeHTML(w, d.Logger, http.StatusOK, func(out io.Writer) error {
			return d.Renderer.Confirm(out, card, d.PageTitle)
		})
	}
}

// RemoveBook deletes a book when the confirmation form answered yes.
func RemoveBook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		accepted := r.PostForm.Get("confirm") == "yes"
		d.Dispatcher.Remove(r.Context(), command.RemoveBook{
			ID:      chi.URLParam(r, "id"),
			Confirm: command.ConfirmFunc(func(string) bool { return accepted }),
		})
		backToShelf(w, r)
	}
}
