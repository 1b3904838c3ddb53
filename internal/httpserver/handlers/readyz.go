package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
)

const storagePingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready   bool   `json:"ready"`
	Storage string `json:"storage"`
	Error   string `json:"error,omitempty"`
}

// Readyz reports ready once the library is wired and the storage backend,
// if any, answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := checkStorage(r.Context(), d.Storage)
		resp := readyzResponse{
			Ready:   d.Dispatcher != nil && st.OK,
			Storage: st.Name,
			Error:   st.Error,
		}
		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}

type storageStatus struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func checkStorage(ctx context.Context, s deps.Storage) storageStatus {
	if s == nil {
		return storageStatus{Name: "memory", OK: true}
	}
	ctx, cancel := context.WithTimeout(ctx, storagePingTimeout)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		return storageStatus{Name: s.Name(), Error: err.Error()}
	}
	return storageStatus{Name: s.Name(), OK: true}
}
