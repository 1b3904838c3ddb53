package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
)

type bookCounts struct {
	Total  int `json:"total"`
	Read   int `json:"read"`
	Unread int `json:"unread"`
}

type infraResponse struct {
	Mode    string        `json:"mode"`
	Books   bookCounts    `json:"books"`
	Storage storageStatus `json:"storage"`
}

// Infra summarizes the library and the storage backend.
// Mode is "persistent", "degraded" (storage unreachable, changes live in
// memory only) or "ephemeral" (no storage configured).
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var counts bookCounts
		for _, b := range d.Dispatcher.Books() {
			counts.Total++
			if b.Read {
				counts.Read++
			} else {
				counts.Unread++
			}
		}

		st := checkStorage(r.Context(), d.Storage)
		mode := "persistent"
		switch {
		case d.Storage == nil:
			mode = "ephemeral"
		case !st.OK:
			mode = "degraded"
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:    mode,
			Books:   counts,
			Storage: st,
		})
	}
}
