package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// AwemeRecord is the denormalized per-item row kept in the persistent store
type AwemeRecord struct {
	AwemeID    string
	AwemeType  string
	Title      string
	AuthorID   string
	AuthorName string
	CreateTime int64
	FilePath   string
	Metadata   string
}

// DB wraps the sqlite persistent store (modernc.org/sqlite, pure Go)
type DB struct {
	db *sql.DB
}

// OpenDB opens the sqlite database at path and runs the idempotent
// migration
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes the underlying database
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) migrate() error {
	const stmt = `CREATE TABLE IF NOT EXISTS awemes (
        aweme_id TEXT PRIMARY KEY,
        aweme_type TEXT,
        title TEXT,
        author_id TEXT,
        author_name TEXT,
        create_time INTEGER,
        file_path TEXT,
        metadata TEXT,
        downloaded_at TIMESTAMP
    );`
	if _, err := d.db.Exec(stmt); err != nil {
		return fmt.Errorf("exec migrate: %w", err)
	}
	return nil
}

// IsDownloaded reports whether a row exists for the identifier
func (d *DB) IsDownloaded(ctx context.Context, awemeID string) (bool, error) {
	var one int
	err := d.db.QueryRowContext(ctx,
		`SELECT 1 FROM awemes WHERE aweme_id = ?`, awemeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query aweme %s: %w", awemeID, err)
	}
	return true, nil
}

// LatestAwemeTime returns the newest stored create_time for an author, or
// 0 when the author has no rows
func (d *DB) LatestAwemeTime(ctx context.Context, authorID string) (int64, error) {
	var latest sql.NullInt64
	err := d.db.QueryRowContext(ctx,
		`SELECT MAX(create_time) FROM awemes WHERE author_id = ?`, authorID).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("query latest time for author %s: %w", authorID, err)
	}
	if !latest.Valid {
		return 0, nil
	}
	return latest.Int64, nil
}

// UpsertAweme inserts or updates the row for one item (aweme_id primary
// key)
func (d *DB) UpsertAweme(ctx context.Context, rec AwemeRecord) error {
	if rec.AwemeID == "" {
		return errors.New("aweme record requires aweme_id")
	}
	_, err := d.db.ExecContext(ctx, `INSERT INTO awemes
        (aweme_id, aweme_type, title, author_id, author_name, create_time, file_path, metadata, downloaded_at)
        VALUES(?,?,?,?,?,?,?,?,?)
        ON CONFLICT(aweme_id) DO UPDATE SET
            aweme_type=excluded.aweme_type,
            title=excluded.title,
            author_id=excluded.author_id,
            author_name=excluded.author_name,
            create_time=excluded.create_time,
            file_path=excluded.file_path,
            metadata=excluded.metadata,
            downloaded_at=excluded.downloaded_at`,
		rec.AwemeID, rec.AwemeType, rec.Title, rec.AuthorID, rec.AuthorName,
		rec.CreateTime, rec.FilePath, rec.Metadata, time.Now())
	if err != nil {
		return fmt.Errorf("upsert aweme %s: %w", rec.AwemeID, err)
	}
	return nil
}
