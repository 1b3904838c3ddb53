package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded stylesheet and other assets, rooted at "static".
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page is the data behind the shelf page.
type Page struct {
	Title  string
	Unread []Card
	Read   []Card
}

// ConfirmPage is the data behind the remove confirmation page.
type ConfirmPage struct {
	Title string
	Card  Card
}

// MissingPage is the data behind the page shown for an unknown book.
type MissingPage struct {
	Title string
}

// CoversPrefix is the route local cover images are served under.
const CoversPrefix = "/covers/"

// RendererOptions tune what the pages may link to.
type RendererOptions struct {
	// ServeCovers is true when CoversPrefix is routed. Otherwise local
	// cover references render as the placeholder.
	ServeCovers bool
}

// Renderer executes the embedded HTML templates.
type Renderer struct {
	shelf   *template.Template
	confirm *template.Template
	missing *template.Template
	opts    RendererOptions
}

// NewRenderer parses the embedded templates.
func NewRenderer(opts RendererOptions) (*Renderer, error) {
	parse := func(name string) (*template.Template, error) {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return t, nil
	}

	shelf, err := parse("shelf.html")
	if err != nil {
		return nil, err
	}
	confirm, err := parse("confirm.html")
	if err != nil {
		return nil, err
	}
	missing, err := parse("missing.html")
	if err != nil {
		return nil, err
	}

	return &Renderer{shelf: shelf, confirm: confirm, missing: missing, opts: opts}, nil
}

// Shelf renders the board.
func (r *Renderer) Shelf(w io.Writer, board *Board, title string) error {
	unread, read := board.Shelves()
	return r.shelf.ExecuteTemplate(w, "layout", Page{
		Title:  title,
		Unread: r.visible(unread),
		Read:   r.visible(read),
	})
}

// Confirm renders the remove confirmation for card.
func (r *Renderer) Confirm(w io.Writer, card Card, title string) error {
	return r.confirm.ExecuteTemplate(w, "layout", ConfirmPage{Title: title, Card: card})
}

// Missing renders the page shown for an unknown book id.
func (r *Renderer) Missing(w io.Writer, title string) error {
	return r.missing.ExecuteTemplate(w, "layout", MissingPage{Title: title})
}

// visible drops cover references the browser could not load.
func (r *Renderer) visible(cards []Card) []Card {
	for i := range cards {
		if !r.reachable(cards[i].Cover) {
			cards[i].Cover = ""
		}
	}
	return cards
}

// reachable reports whether ref points at a remote image or, when covers
// are served, at a file under CoversPrefix. Relative references resolve
// against the shelf page at "/".
func (r *Renderer) reachable(ref string) bool {
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		return u.Host != ""
	case u.Scheme != "" || u.Host != "":
		return false
	}
	return r.opts.ServeCovers && strings.HasPrefix(path.Clean("/"+u.Path), CoversPrefix)
}
