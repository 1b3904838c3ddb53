package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookshelf/internal/command"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/library"
)

const maxBodyBytes = 64 << 10

type listResponse struct {
	Books []library.Record `json:"books"`
	Count int              `json:"count"`
}

// bookRequest is the body of POST /api/books. Missing or null fields stay
// missing; pages and release may be sent as numbers.
type bookRequest struct {
	Title   library.Text  `json:"title"`
	Author  library.Text  `json:"author"`
	Pages   library.Text  `json:"pages"`
	Genre   library.Text  `json:"genre"`
	Release library.Text  `json:"release"`
	Read    bool          `json:"read"`
	Cover   library.Cover `json:"cover"`
}

func (b bookRequest) command() command.AddBook {
	raw := func(t library.Text) string {
		v, _ := t.Value()
		return v
	}
	cover, _ := b.Cover.Ref()
	return command.AddBook{
		Title:   raw(b.Title),
		Author:  raw(b.Author),
		Pages:   raw(b.Pages),
		Genre:   raw(b.Genre),
		Release: raw(b.Release),
		Read:    b.Read,
		Cover:   cover,
	}
}

// ListBooks returns every book in shelf order, optionally filtered by ?read=.
func ListBooks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books := d.Dispatcher.Books()

		if q := r.URL.Query().Get("read"); q != "" {
			want, err := strconv.ParseBool(q)
			if err != nil {
				writeError(w, http.StatusBadRequest, "read must be true or false")
				return
			}
			filtered := books[:0]
			for _, b := range books {
				if b.Read == want {
					filtered = append(filtered, b)
				}
			}
			books = filtered
		}

		writeJSON(w, http.StatusOK, listResponse{Books: books, Count: len(books)})
	}
}

func GetBook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := d.Dispatcher.Book(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func CreateBook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bookRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid book: "+err.Error())
			return
		}

		rec := d.Dispatcher.Add(r.Context(), req.command())
		w.Header().Set("Location", "/api/books/"+rec.ID)
		writeJSON(w, http.StatusCreated, rec)
	}
}

func ToggleBookAPI(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := d.Dispatcher.ToggleRead(r.Context(), command.ToggleRead{ID: chi.URLParam(r, "id")})
		if !ok {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// DeleteBook removes a book without asking: API clients confirm on their side.
func DeleteBook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Dispatcher.Remove(r.Context(), command.RemoveBook{ID: chi.URLParam(r, "id")}) {
			writeError(w, http.StatusNotFound, "book not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
