package library

import (
	"context"

	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// Persister mirrors the store somewhere durable.
// The in-memory store stays the source of truth: persister failures are
// logged and never undo a mutation.
type Persister interface {
	SaveBook(ctx context.Context, rec Record) error
	DeleteBook(ctx context.Context, id string) error
	LoadBooks(ctx context.Context) ([]Record, error)
}

// Store is the ordered, in-memory owner of every Book.
//
// Lookups are linear scans over a slice; a personal library holds a handful
// of entries. Store is not safe for concurrent use: callers serialize access
// (see command.Dispatcher).
type Store struct {
	books     []*Book
	nextSeq   int64
	persister Persister
	logger    logger.Logger
}

// NewStore creates an empty, memory-only store.
func NewStore() *Store {
	return &Store{}
}

// NewPersistentStore creates an empty store mirrored to p.
func NewPersistentStore(p Persister, log logger.Logger) *Store {
	return &Store{
		persister: p,
		logger:    log,
	}
}

// Add creates a Book from f and appends it. It always succeeds.
func (s *Store) Add(ctx context.Context, f Fields) *Book {
	s.nextSeq++
	b := newBook(s.nextSeq, f)
	s.books = append(s.books, b)
	s.save(ctx, b)
	return b
}

// RemoveByID removes the book with the given id.
// It reports false, leaving the store untouched, when no book matches.
func (s *Store) RemoveByID(ctx context.Context, id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.books = append(s.books[:i], s.books[i+1:]...)

	if s.persister != nil {
		if err := s.persister.DeleteBook(ctx, id); err != nil {
			s.logger.Warn("failed to delete book from persister",
				logger.String("id", id),
				logger.Error(err))
		}
	}
	return true
}

// FindByID returns the stored book with the given id.
// The pointer aliases the store's record; mutate it only through ToggleRead.
func (s *Store) FindByID(id string) (*Book, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.books[i], true
}

// All returns copies of every book in store order.
func (s *Store) All() []Book {
	out := make([]Book, len(s.books))
	for i, b := range s.books {
		out[i] = *b
	}
	return out
}

// Len returns the number of stored books.
func (s *Store) Len() int { return len(s.books) }

// Persist mirrors the current state of b (typically after ToggleRead).
func (s *Store) Persist(ctx context.Context, b *Book) {
	s.save(ctx, b)
}

// Restore appends previously persisted records, keeping their ids and order.
// Records whose id is already present are skipped. It returns the restored books.
func (s *Store) Restore(recs []Record) []*Book {
	restored := make([]*Book, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" || s.indexOf(rec.ID) >= 0 {
			continue
		}
		b := restoreBook(rec)
		s.books = append(s.books, b)
		restored = append(restored, b)
		if rec.Seq > s.nextSeq {
			s.nextSeq = rec.Seq
		}
	}
	return restored
}

func (s *Store) indexOf(id string) int {
	for i, b := range s.books {
		if b.id == id {
			return i
		}
	}
	return -1
}

func (s *Store) save(ctx context.Context, b *Book) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveBook(ctx, b.Record()); err != nil {
		s.logger.Warn("failed to save book to persister",
			logger.String("id", b.id),
			logger.Error(err))
	}
}
