package command

import (
	"context"

	"github.com/MrSnakeDoc/bookshelf/internal/library"
)

// Presenter mirrors store mutations into whatever shows the books.
type Presenter interface {
	Render(b library.Book)
	Discard(id string)
	Relocate(id string, read bool)
}

// Confirmer gates destructive commands. It receives the book title as
// displayed and returns true to proceed.
type Confirmer interface {
	Confirm(title string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(title string) bool

func (f ConfirmFunc) Confirm(title string) bool { return f(title) }

// Command is a single user action. Commands are applied one at a time by a
// Dispatcher.
type Command interface {
	apply(ctx context.Context, d *Dispatcher) Result
}

// Result describes what a command did.
// Applied is false when the command was a no-op (unknown id, declined confirmation).
type Result struct {
	Applied bool
	Book    *library.Record
}

// AddBook carries raw form values for a new book. Blank values become
// missing fields, a blank Cover means no cover.
type AddBook struct {
	Title   string
	Author  string
	Pages   string
	Genre   string
	Release string
	Read    bool
	Cover   string
}

// Fields resolves raw values into library fields.
func (c AddBook) Fields() library.Fields {
	return library.Fields{
		Title:   library.TextOf(c.Title),
		Author:  library.TextOf(c.Author),
		Pages:   library.TextOf(c.Pages),
		Genre:   library.TextOf(c.Genre),
		Release: library.TextOf(c.Release),
		Read:    c.Read,
		Cover:   library.CoverOf(c.Cover),
	}
}

func (c AddBook) apply(ctx context.Context, d *Dispatcher) Result {
	return d.add(ctx, c.Fields())
}

// RemoveBook deletes a book. Confirm is optional; when set the book is
// removed only if it accepts.
type RemoveBook struct {
	ID      string
	Confirm Confirmer
}

func (c RemoveBook) apply(ctx context.Context, d *Dispatcher) Result {
	return d.remove(ctx, c.ID, c.Confirm)
}

// ToggleRead flips the read flag of a book.
type ToggleRead struct {
	ID string
}

func (c ToggleRead) apply(ctx context.Context, d *Dispatcher) Result {
	return d.toggleRead(ctx, c.ID)
}
