package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookshelf/internal/library"
	"github.com/MrSnakeDoc/bookshelf/internal/logger"
)

// ErrBookNotFound is returned by GetBook when no value is stored for the id.
var ErrBookNotFound = errors.New("book not found")

const scanBatch = 100

// Store persists books in Redis. It implements library.Persister.
type Store struct {
	client *redis.Client
	logger logger.Logger
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client, log logger.Logger) *Store {
	return &Store{
		client: client,
		logger: log,
	}
}

// SaveBook stores a book and records its position in the shelf order
func (s *Store) SaveBook(ctx context.Context, rec library.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal book: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, BookKey(rec.ID), data, 0)
	pipe.ZAdd(ctx, BookOrderKey(), redis.Z{Score: float64(rec.Seq), Member: rec.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save book: %w", err)
	}
	return nil
}

// GetBook retrieves a book from Redis by ID
func (s *Store) GetBook(ctx context.Context, id string) (library.Record, error) {
	data, err := s.client.Get(ctx, BookKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return library.Record{}, fmt.Errorf("%w: %s", ErrBookNotFound, id)
		}
		return library.Record{}, fmt.Errorf("failed to get book: %w", err)
	}

	var rec library.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return library.Record{}, fmt.Errorf("failed to unmarshal book: %w", err)
	}
	return rec, nil
}

// LoadBooks retrieves every book in shelf order.
// Order entries whose value is gone are dropped from the order set; values
// that fail to decode are skipped and logged. When the order set is empty
// but book keys exist, the keys are scanned and sorted by seq instead.
func (s *Store) LoadBooks(ctx context.Context) ([]library.Record, error) {
	ids, err := s.client.ZRange(ctx, BookOrderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get book IDs: %w", err)
	}

	ordered := true
	if len(ids) == 0 {
		if ids, err = s.scanBookIDs(ctx); err != nil {
			return nil, err
		}
		ordered = false
	}

	books := make([]library.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetBook(ctx, id)
		if err != nil {
			s.skip(ctx, id, err)
			continue
		}
		books = append(books, rec)
	}

	if !ordered && len(books) > 0 {
		sort.SliceStable(books, func(i, j int) bool { return books[i].Seq < books[j].Seq })
		s.logger.Warn("book order set missing, rebuilt from keys",
			logger.Int("count", len(books)))
	}
	return books, nil
}

// scanBookIDs lists ids from the book keys themselves.
func (s *Store) scanBookIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, KeyPrefixBook+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		id, err := ExtractBookID(iter.Val())
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan book keys: %w", err)
	}
	return ids, nil
}

func (s *Store) skip(ctx context.Context, id string, err error) {
	if errors.Is(err, ErrBookNotFound) {
		s.logger.Warn("dropping dangling book order entry", logger.String("id", id))
		if zerr := s.client.ZRem(ctx, BookOrderKey(), id).Err(); zerr != nil {
			s.logger.Warn("failed to drop order entry", logger.String("id", id), logger.Error(zerr))
		}
		return
	}
	s.logger.Warn("skipping unreadable book", logger.String("id", id), logger.Error(err))
}

// DeleteBook removes a book from Redis
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, BookKey(id))
	pipe.ZRem(ctx, BookOrderKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Name identifies the backend in status reports
func (s *Store) Name() string { return "redis" }
