package library

import (
	"errors"

	"github.com/google/uuid"
)

// ErrDetachedBook is the panic value raised when a Book that was not
// created by a Store is used.
var ErrDetachedBook = errors.New("library: book was not created through a Store")

// Fields are the descriptive values of a new book.
type Fields struct {
	Title   Text
	Author  Text
	Pages   Text
	Genre   Text
	Release Text
	Read    bool
	Cover   Cover
}

// Book is a single library entry.
//
// Identity is assigned once by the Store and never changes; Read is the only
// state that moves after construction.
type Book struct {
	id     string
	seq    int64
	fields Fields
}

// Record is the exported snapshot of a Book, used by persisters and the
// JSON API.
type Record struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	Title   Text   `json:"title"`
	Author  Text   `json:"author"`
	Pages   Text   `json:"pages"`
	Genre   Text   `json:"genre"`
	Release Text   `json:"release"`
	Read    bool   `json:"read"`
	Cover   Cover  `json:"cover"`
}

func newBook(seq int64, f Fields) *Book {
	return &Book{
		id:     uuid.NewString(),
		seq:    seq,
		fields: f,
	}
}

func restoreBook(rec Record) *Book {
	return &Book{
		id:  rec.ID,
		seq: rec.Seq,
		fields: Fields{
			Title:   rec.Title,
			Author:  rec.Author,
			Pages:   rec.Pages,
			Genre:   rec.Genre,
			Release: rec.Release,
			Read:    rec.Read,
			Cover:   rec.Cover,
		},
	}
}

func (b *Book) attached() {
	if b == nil || b.id == "" {
		panic(ErrDetachedBook)
	}
}

func (b *Book) ID() string {
	b.attached()
	return b.id
}

func (b *Book) Title() Text   { b.attached(); return b.fields.Title }
func (b *Book) Author() Text  { b.attached(); return b.fields.Author }
func (b *Book) Pages() Text   { b.attached(); return b.fields.Pages }
func (b *Book) Genre() Text   { b.attached(); return b.fields.Genre }
func (b *Book) Release() Text { b.attached(); return b.fields.Release }
func (b *Book) Cover() Cover  { b.attached(); return b.fields.Cover }
func (b *Book) Read() bool    { b.attached(); return b.fields.Read }

// ToggleRead flips the read flag. Keeping any view in sync is the caller's job.
func (b *Book) ToggleRead() {
	b.attached()
	b.fields.Read = !b.fields.Read
}

// Record returns a snapshot of the book.
func (b *Book) Record() Record {
	b.attached()
	return Record{
		ID:      b.id,
		Seq:     b.seq,
		Title:   b.fields.Title,
		Author:  b.fields.Author,
		Pages:   b.fields.Pages,
		Genre:   b.fields.Genre,
		Release: b.fields.Release,
		Read:    b.fields.Read,
		Cover:   b.fields.Cover,
	}
}
