package bootstrap

import (
	"context"

	"github.com/MrSnakeDoc/bookshelf/internal/command"
	"github.com/MrSnakeDoc/bookshelf/internal/library"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
	"github.com/MrSnakeDoc/bookshelf/internal/sources/seed"
)

// Source provides previously persisted books.
type Source interface {
	LoadBooks(ctx context.Context) ([]library.Record, error)
}

// Summary reports how the shelf was populated at startup.
type Summary struct {
	Restored int
	Seeded   int
}

// Populator fills the shelf on startup: persisted books win, seeds are only
// applied to an empty library.
type Populator struct {
	source     Source // nil when running memory-only
	seeds      *seed.Loader
	seed       bool
	dispatcher *command.Dispatcher
	logger     logger.Logger
}

// NewPopulator creates a populator. source may be nil; seeds is consulted
// only when seedEnabled is true.
func NewPopulator(
	source Source,
	seeds *seed.Loader,
	seedEnabled bool,
	d *command.Dispatcher,
	log logger.Logger,
) *Populator {
	return &Populator{
		source:     source,
		seeds:      seeds,
		seed:       seedEnabled,
		dispatcher: d,
		logger:     log,
	}
}

// Populate restores persisted books, or seeds an empty library through the
// Add command.
func (p *Populator) Populate(ctx context.Context) (Summary, error) {
	var sum Summary

	if p.source != nil {
		p.logger.Info("restoring books from storage")
		recs, err := p.source.LoadBooks(ctx)
		if err != nil {
			// Seeding now could duplicate books once storage recovers.
			p.logger.Warn("failed to restore books, starting with an empty shelf",
				logger.Error(err))
			return sum, nil
		}
		sum.Restored = p.dispatcher.Restore(recs)
		if sum.Restored > 0 {
			p.logger.Info("restored books from storage",
				logger.Int("count", sum.Restored))
			return sum, nil
		}
		p.logger.Info("no books found in storage")
	}

	if !p.seed {
		return sum, nil
	}

	f, err := p.seeds.Load()
	if err != nil {
		return sum, err
	}
	for _, cmd := range f.Commands() {
		p.dispatcher.Dispatch(ctx, cmd)
		sum.Seeded++
	}
	p.logger.Info("seeded sample books",
		logger.String("source", p.seeds.Source()),
		logger.Int("count", sum.Seeded))

	return sum, nil
}
