package view

import (
	"sync"

	"github.com/MrSnakeDoc/bookshelf/internal/library"
)

const (
	LabelMarkRead   = "Mark as read"
	LabelMarkUnread = "Mark as unread"
)

// Card is the display form of a book. Missing descriptive fields are already
// rendered as library.Sentinel.
type Card struct {
	ID      string
	Title   string
	Author  string
	Pages   string
	Genre   string
	Release string
	Cover   string // empty when the book has no cover
	Read    bool
}

// ToggleLabel is the text of the card's read toggle control.
func (c Card) ToggleLabel() string {
	if c.Read {
		return LabelMarkUnread
	}
	return LabelMarkRead
}

// HasCover reports whether a cover image should be shown.
func (c Card) HasCover() bool { return c.Cover != "" }

// CardOf builds the card for b.
func CardOf(b library.Book) Card {
	cover, _ := b.Cover().Ref()
	return Card{
		ID:      b.ID(),
		Title:   b.Title().String(),
		Author:  b.Author().String(),
		Pages:   b.Pages().String(),
		Genre:   b.Genre().String(),
		Release: b.Release().String(),
		Cover:   cover,
		Read:    b.Read(),
	}
}

// Board keeps the cards on two shelves, unread and read, in display order.
// It implements command.Presenter.
type Board struct {
	mu     sync.RWMutex
	cards  map[string]*Card
	unread []string
	read   []string
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{cards: make(map[string]*Card)}
}

// Render places the card for b at the end of its shelf.
// Rendering an id already on the board replaces its card and moves it to
// the end of its shelf.
func (bd *Board) Render(b library.Book) {
	card := CardOf(b)

	bd.mu.Lock()
	defer bd.mu.Unlock()

	if _, ok := bd.cards[card.ID]; ok {
		bd.detachLocked(card.ID)
	}
	bd.cards[card.ID] = &card
	bd.attachLocked(card.ID, card.Read)
}

// Discard drops the card for id. Unknown ids are ignored.
func (bd *Board) Discard(id string) {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	if _, ok := bd.cards[id]; !ok {
		return
	}
	bd.detachLocked(id)
	delete(bd.cards, id)
}

// Relocate moves the card for id to the end of the shelf matching read and
// updates its toggle label. Unknown ids are ignored.
func (bd *Board) Relocate(id string, read bool) {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	card, ok := bd.cards[id]
	if !ok {
		return
	}
	bd.detachLocked(id)
	card.Read = read
	bd.attachLocked(id, read)
}

// Shelves returns copies of the unread and read shelves.
func (bd *Board) Shelves() (unread, read []Card) {
	bd.mu.RLock()
	defer bd.mu.RUnlock()

	return bd.collectLocked(bd.unread), bd.collectLocked(bd.read)
}

// Card returns the card for id.
func (bd *Board) Card(id string) (Card, bool) {
	bd.mu.RLock()
	defer bd.mu.RUnlock()

	c, ok := bd.cards[id]
	if !ok {
		return Card{}, false
	}
	return *c, true
}

func (bd *Board) collectLocked(ids []string) []Card {
	out := make([]Card, 0, len(ids))
	for _, id := range ids {
		out = append(out, *bd.cards[id])
	}
	return out
}

func (bd *Board) attachLocked(id string, read bool) {
	if read {
		bd.read = append(bd.read, id)
	} else {
		bd.unread = append(bd.unread, id)
	}
}

func (bd *Board) detachLocked(id string) {
	bd.unread = without(bd.unread, id)
	bd.read = without(bd.read, id)
}

func without(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
