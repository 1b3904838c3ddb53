package seed

import (
	"github.com/MrSnakeDoc/bookshelf/internal/command"
)

// Commands converts seed entries into Add commands, in file order.
// Entries are not validated: blanks become missing fields like any form input.
func (f File) Commands() []command.AddBook {
	cmds := make([]command.AddBook, 0, len(f.Books))
	for _, e := range f.Books {
		cmds = append(cmds, command.AddBook{
			Title:   e.Title,
			Author:  e.Author,
			Pages:   e.Pages,
			Genre:   e.Genre,
			Release: e.Release,
			Read:    e.Read,
			Cover:   e.Cover,
		})
	}
	return cmds
}
