package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/bookshelf/internal/command"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookshelf/internal/httpserver/mw"
	"github.com/MrSnakeDoc/bookshelf/internal/library"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/sources/seed"
	"github.com/MrSnakeDoc/bookshelf/internal/view"
)

type fakeStorage struct{ err error }

func (f fakeStorage) Name() string                   { return "redis" }
func (f fakeStorage) Ping(ctx context.Context) error { return f.err }

type harness struct {
	t      *testing.T
	deps   deps.Deps
	router http.Handler
}

func newHarness(t *testing.T, tweak ...func(*deps.Deps)) *harness {
	t.Helper()
	log := logger.NewNop()
	board := view.NewBoard()

	d := deps.Deps{
		Logger:     log,
		StartTime:  time.Now(),
		Version:    "test",
		PageTitle:  "Library",
		Dispatcher: command.NewDispatcher(library.NewStore(), board, log),
		Board:      board,
	}
	for _, f := range tweak {
		f(&d)
	}

	renderer, err := view.NewRenderer(view.RendererOptions{ServeCovers: d.CoversDir != ""})
	require.NoError(t, err)
	d.Renderer = renderer
	return &harness{t: t, deps: d, router: NewRouter(5*time.Second, d)}
}

func (h *harness) do(method, target string, body string, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, target, form.Encode(), "application/x-www-form-urlencoded")
}

func (h *harness) add(title string, read bool) library.Record {
	return h.deps.Dispatcher.Add(context.Background(), command.AddBook{Title: title, Read: read})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestShelfPage(t *testing.T) {
	h := newHarness(t)
	h.add("Dracula", false)
	h.add("Moby Dick", true)

	rec := h.do(http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Dracula")
	assert.Contains(t, rec.Body.String(), "Moby Dick")
}

func TestAddFromForm(t *testing.T) {
	h := newHarness(t)

	rec := h.postForm("/books", url.Values{
		"title": {"Dune"},
		"pages": {"412"},
		"read":  {"on"},
		"cover": {"dune.jpg"},
	})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	books := h.deps.Dispatcher.Books()
	require.Len(t, books, 1)
	b := books[0]
	assert.Equal(t, "Dune", b.Title.String())
	assert.Equal(t, "412", b.Pages.String())
	assert.True(t, b.Author.IsMissing())
	assert.True(t, b.Read)
	_, hasCover := b.Cover.Ref()
	assert.False(t, hasCover)

	_, read := h.deps.Board.Shelves()
	require.Len(t, read, 1)
	assert.Equal(t, b.ID, read[0].ID)
}

func TestAddFromFormWithoutReadCheckbox(t *testing.T) {
	h := newHarness(t)
	h.postForm("/books", url.Values{"title": {""}})

	books := h.deps.Dispatcher.Books()
	require.Len(t, books, 1)
	assert.False(t, books[0].Read)
	assert.Equal(t, library.Sentinel, books[0].Title.String())
}

func TestToggleFromForm(t *testing.T) {
	h := newHarness(t)
	b := h.add("Dracula", false)

	rec := h.postForm("/books/"+b.ID+"/toggle", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	got, ok := h.deps.Dispatcher.Book(b.ID)
	require.True(t, ok)
	assert.True(t, got.Read)

	rec = h.postForm("/books/unknown/toggle", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestRemoveFlow(t *testing.T) {
	h := newHarness(t)
	b := h.add("Frankenstein", false)

	rec := h.do(http.MethodGet, "/books/"+b.ID+"/remove", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Frankenstein")

	rec = h.postForm("/books/"+b.ID+"/remove", url.Values{"confirm": {"no"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, ok := h.deps.Dispatcher.Book(b.ID)
	assert.True(t, ok, "declined removal must keep the book")

	rec = h.postForm("/books/"+b.ID+"/remove", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	_, ok = h.deps.Dispatcher.Book(b.ID)
	assert.False(t, ok)

	rec = h.do(http.MethodGet, "/books/"+b.ID+"/remove", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no longer on the shelf")
}

func TestAPICreateAndGet(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/books",
		`{"title":"Dune","author":"Frank Herbert","pages":412,"genre":null,"cover":"./covers/dune.jpg"}`,
		"application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[map[string]any](t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "/api/books/"+id, rec.Header().Get("Location"))
	assert.Equal(t, "412", created["pages"])
	assert.Nil(t, created["genre"])
	assert.Equal(t, "./covers/dune.jpg", created["cover"])

	rec = h.do(http.MethodGet, "/api/books/"+id, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune", decode[map[string]any](t, rec)["title"])
}

func TestAPIRejectsBadBodies(t *testing.T) {
	h := newHarness(t)

	for _, body := range []string{`{`, `{"title":{"nested":true}}`, `{"unknown":1}`} {
		rec := h.do(http.MethodPost, "/api/books", body, "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
	}
	assert.Empty(t, h.deps.Dispatcher.Books())
}

func TestAPIListFilter(t *testing.T) {
	h := newHarness(t)
	h.add("A", false)
	h.add("B", true)
	h.add("C", false)

	type list struct {
		Books []map[string]any `json:"books"`
		Count int              `json:"count"`
	}

	all := decode[list](t, h.do(http.MethodGet, "/api/books", "", ""))
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, "A", all.Books[0]["title"])

	read := decode[list](t, h.do(http.MethodGet, "/api/books?read=true", "", ""))
	require.Equal(t, 1, read.Count)
	assert.Equal(t, "B", read.Books[0]["title"])

	unread := decode[list](t, h.do(http.MethodGet, "/api/books?read=false", "", ""))
	assert.Equal(t, 2, unread.Count)

	rec := h.do(http.MethodGet, "/api/books?read=maybe", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIMissingIDs(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/api/books/nope"},
		{http.MethodPost, "/api/books/nope/toggle"},
		{http.MethodDelete, "/api/books/nope"},
	} {
		rec := h.do(tc.method, tc.target, "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.target)
		assert.Equal(t, "book not found", decode[map[string]string](t, rec)["error"])
	}
}

func TestAPIToggleAndDelete(t *testing.T) {
	h := newHarness(t)
	b := h.add("Dracula", false)

	rec := h.do(http.MethodPost, "/api/books/"+b.ID+"/toggle", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["read"])

	rec = h.do(http.MethodDelete, "/api/books/"+b.ID, "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = h.do(http.MethodDelete, "/api/books/"+b.ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	unread, read := h.deps.Board.Shelves()
	assert.Empty(t, unread)
	assert.Empty(t, read)
}

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestReadyzAndInfra(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		h := newHarness(t)
		h.add("A", true)
		h.add("B", false)

		rec := h.do(http.MethodGet, "/readyz", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		infra := decode[map[string]any](t, h.do(http.MethodGet, "/infra", "", ""))
		assert.Equal(t, "ephemeral", infra["mode"])
		books := infra["books"].(map[string]any)
		assert.EqualValues(t, 2, books["total"])
		assert.EqualValues(t, 1, books["read"])
		assert.EqualValues(t, 1, books["unread"])
	})

	t.Run("storage down", func(t *testing.T) {
		h := newHarness(t, func(d *deps.Deps) {
			d.Storage = fakeStorage{err: errors.New("connection refused")}
		})

		rec := h.do(http.MethodGet, "/readyz", "", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "connection refused", decode[map[string]any](t, rec)["error"])

		infra := decode[map[string]any](t, h.do(http.MethodGet, "/infra", "", ""))
		assert.Equal(t, "degraded", infra["mode"])
	})

	t.Run("restricted", func(t *testing.T) {
		h := newHarness(t, func(d *deps.Deps) {
			d.AllowedCIDRS = []string{"10.0.0.0/8"}
		})
		// httptest requests come from 192.0.2.1
		assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/infra", "", "").Code)
		assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", "").Code)
	})
}

func TestStaticAndCovers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dune.jpg"), []byte("jpeg"), 0o644))

	h := newHarness(t, func(d *deps.Deps) { d.CoversDir = dir })

	rec := h.do(http.MethodGet, "/static/style.css", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodGet, "/covers/dune.jpg", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())

	rec = h.do(http.MethodGet, "/covers/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMutatingRoutesAreRateLimited(t *testing.T) {
	h := newHarness(t, func(d *deps.Deps) {
		d.RateLimit = mw.RateLimit(mw.RateLimitConfig{Burst: 1, RefillPerMin: 1})
	})

	assert.Equal(t, http.StatusSeeOther, h.postForm("/books", url.Values{"title": {"A"}}).Code)
	assert.Equal(t, http.StatusTooManyRequests, h.postForm("/books", url.Values{"title": {"B"}}).Code)
	assert.Equal(t, http.StatusTooManyRequests,
		h.do(http.MethodPost, "/api/books", `{"title":"C"}`, "application/json").Code)

	// reads are not limited
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/", "", "").Code)
	assert.Len(t, h.deps.Dispatcher.Books(), 1)
}

func TestEnforceHost(t *testing.T) {
	h := newHarness(t, func(d *deps.Deps) { d.AllowedHosts = []string{"books.lan"} })

	// httptest requests use Host example.com
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/", "", "").Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "books.lan:8080"
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPageTitleIsConfigurable(t *testing.T) {
	h := newHarness(t, func(d *deps.Deps) { d.PageTitle = "My shelf" })
	b := h.add("Dracula", false)

	for _, target := range []string{"/", "/books/" + b.ID + "/remove", "/books/unknown/remove"} {
		rec := h.do(http.MethodGet, target, "", "")
		assert.Contains(t, rec.Body.String(), "<title>My shelf</title>", target)
		assert.NotContains(t, rec.Body.String(), "<title>Library</title>", target)
	}
}

var imgSrc = regexp.MustCompile(`<img src="([^"]+)"`)

func (h *harness) seedBuiltIn() {
	h.t.Helper()
	f, err := seed.NewLoader("").Load()
	require.NoError(h.t, err)
	for _, cmd := range f.Commands() {
		h.deps.Dispatcher.Add(context.Background(), cmd)
	}
}

func TestBuiltInSeedHasNoBrokenCovers(t *testing.T) {
	t.Run("no covers directory", func(t *testing.T) {
		h := newHarness(t)
		h.seedBuiltIn()

		body := h.do(http.MethodGet, "/", "", "").Body.String()
		assert.Contains(t, body, "Dracula")
		assert.Empty(t, imgSrc.FindAllStringSubmatch(body, -1))
	})

	t.Run("covers directory", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "dracula-cover.jpg"), []byte("jpeg"), 0o644))
		h := newHarness(t, func(d *deps.Deps) { d.CoversDir = dir })
		h.seedBuiltIn()

		body := h.do(http.MethodGet, "/", "", "").Body.String()
		srcs := imgSrc.FindAllStringSubmatch(body, -1)
		require.Len(t, srcs, 7)
		assert.Equal(t, "./covers/dracula-cover.jpg", srcs[0][1])

		rec := h.do(http.MethodGet, "/"+strings.TrimPrefix(srcs[0][1], "./"), "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
