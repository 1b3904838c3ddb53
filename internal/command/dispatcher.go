package command

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/bookshelf/internal/library"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// Dispatcher applies commands to the store and the presenter.
//
// Every command runs under one mutex held across the store mutation and the
// presenter update, so concurrent HTTP handlers behave like a single user.
type Dispatcher struct {
	mu     sync.Mutex
	store  *library.Store
	view   Presenter
	logger logger.Logger
}

// NewDispatcher creates a dispatcher owning store and driving view.
func NewDispatcher(store *library.Store, view Presenter, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:  store,
		view:   view,
		logger: log,
	}
}

// Dispatch applies cmd synchronously.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return cmd.apply(ctx, d)
}

// Add is shorthand for Dispatch(ctx, cmd) with an AddBook.
func (d *Dispatcher) Add(ctx context.Context, cmd AddBook) library.Record {
	return *d.Dispatch(ctx, cmd).Book
}

// Remove reports whether a book was removed.
func (d *Dispatcher) Remove(ctx context.Context, cmd RemoveBook) bool {
	return d.Dispatch(ctx, cmd).Applied
}

// ToggleRead returns the updated book, or false when the id is unknown.
func (d *Dispatcher) ToggleRead(ctx context.Context, cmd ToggleRead) (library.Record, bool) {
	res := d.Dispatch(ctx, cmd)
	if !res.Applied {
		return library.Record{}, false
	}
	return *res.Book, true
}

// Books returns snapshots of every book in store order.
func (d *Dispatcher) Books() []library.Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	all := d.store.All()
	out := make([]library.Record, len(all))
	for i := range all {
		out[i] = all[i].Record()
	}
	return out
}

// Book returns a snapshot of the book with the given id.
func (d *Dispatcher) Book(id string) (library.Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.store.FindByID(id)
	if !ok {
		return library.Record{}, false
	}
	return b.Record(), true
}

// Restore loads persisted records into the store and renders them.
func (d *Dispatcher) Restore(recs []library.Record) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	restored := d.store.Restore(recs)
	for _, b := range restored {
		d.view.Render(*b)
	}
	return len(restored)
}

func (d *Dispatcher) add(ctx context.Context, f library.Fields) Result {
	b := d.store.Add(ctx, f)
	d.view.Render(*b)

	rec := b.Record()
	d.logger.Debug("book added",
		logger.String("id", rec.ID),
		logger.String("title", rec.Title.String()),
		logger.Bool("read", rec.Read))
	return Result{Applied: true, Book: &rec}
}

func (d *Dispatcher) remove(ctx context.Context, id string, confirm Confirmer) Result {
	b, ok := d.store.FindByID(id)
	if !ok {
		d.logger.Debug("remove: unknown book, no-op", logger.String("id", id))
		return Result{}
	}
	rec := b.Record()

	if confirm != nil && !confirm.Confirm(rec.Title.String()) {
		d.logger.Debug("remove: declined", logger.String("id", id))
		return Result{}
	}

	if !d.store.RemoveByID(ctx, id) {
		return Result{}
	}
	d.view.Discard(id)

	d.logger.Debug("book removed",
		logger.String("id", id),
		logger.String("title", rec.Title.String()))
	return Result{Applied: true, Book: &rec}
}

func (d *Dispatcher) toggleRead(ctx context.Context, id string) Result {
	b, ok := d.store.FindByID(id)
	if !ok {
		d.logger.Debug("toggle: unknown book, no-op", logger.String("id", id))
		return Result{}
	}

	b.ToggleRead()
	d.store.Persist(ctx, b)
	d.view.Relocate(id, b.Read())

	rec := b.Record()
	d.logger.Debug("book read state toggled",
		logger.String("id", id),
		logger.Bool("read", rec.Read))
	return Result{Applied: true, Book: &rec}
}
