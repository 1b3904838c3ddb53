package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MrSnakeDoc/bookshelf/internal/library"
)

const schemaVersion = 1

// Store persists books in a SQLite database. It implements library.Persister.
// Missing descriptive fields are stored as NULL.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; the dispatcher already serializes commands.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS books (
            id      TEXT PRIMARY KEY,
            seq     INTEGER NOT NULL,
            title   TEXT,
            author  TEXT,
            pages   TEXT,
            genre   TEXT,
            released TEXT,
            read    BOOLEAN NOT NULL DEFAULT 0,
            cover   TEXT
        );`); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_books_seq ON books(seq);`); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// SaveBook inserts or replaces a book.
func (s *Store) SaveBook(ctx context.Context, rec library.Record) error {
	cover, _ := rec.Cover.Ref()
	_, err := s.db.ExecContext(ctx, `INSERT INTO books(id,seq,title,author,pages,genre,released,read,cover)
        VALUES(?,?,?,?,?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE SET
            seq=excluded.seq, title=excluded.title, author=excluded.author,
            pages=excluded.pages, genre=excluded.genre, released=excluded.released,
            read=excluded.read, cover=excluded.cover;`,
		rec.ID, rec.Seq,
		nullable(rec.Title), nullable(rec.Author), nullable(rec.Pages),
		nullable(rec.Genre), nullable(rec.Release),
		rec.Read, sql.NullString{String: cover, Valid: cover != ""},
	)
	if err != nil {
		return fmt.Errorf("save book %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteBook removes a book. Deleting an unknown id is not an error.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete book %s: %w", id, err)
	}
	return nil
}

// LoadBooks returns every book in shelf order.
func (s *Store) LoadBooks(ctx context.Context) ([]library.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,seq,title,author,pages,genre,released,read,cover FROM books ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []library.Record
	for rows.Next() {
		var (
			rec                                     library.Record
			title, author, pages, genre, rel, cover sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Seq, &title, &author, &pages, &genre, &rel, &rec.Read, &cover); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		rec.Title = text(title)
		rec.Author = text(author)
		rec.Pages = text(pages)
		rec.Genre = text(genre)
		rec.Release = text(rel)
		if cover.Valid {
			rec.Cover = library.CoverOf(cover.String)
		}
		books = append(books, rec)
	}
	return books, rows.Err()
}

// Ping reports whether the database answers.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Name identifies the backend in status reports.
func (s *Store) Name() string { return "sqlite" }

func nullable(t library.Text) sql.NullString {
	v, ok := t.Value()
	return sql.NullString{String: v, Valid: ok}
}

func text(ns sql.NullString) library.Text {
	if !ns.Valid {
		return library.Missing()
	}
	return library.Present(ns.String)
}
