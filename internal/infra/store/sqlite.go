package store

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"github.com/osa030/syncin/internal/domain/favorite"
	"github.com/osa030/syncin/internal/domain/track"
)

const schema = `
CREATE TABLE IF NOT EXISTS favorites (
	provider TEXT NOT NULL,
	id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	artist TEXT NOT NULL DEFAULT '',
	album TEXT NOT NULL DEFAULT '',
	duration_seconds INTEGER NOT NULL DEFAULT 0,
	art TEXT NOT NULL DEFAULT '',
	ref TEXT NOT NULL DEFAULT '',
	preview TEXT NOT NULL DEFAULT '',
	added_at TIMESTAMP NOT NULL,
	PRIMARY KEY (provider, id)
)`

// SQLite stores favorites in a SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the database at path.
// The path can be ":memory:" for an in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}
	// A single connection keeps ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create favorites table")
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load reads all entries ordered by added time.
func (s *SQLite) Load() ([]favorite.Entry, error) {
	rows, err := s.db.Query(`
		SELECT provider, id, title, artist, album, duration_seconds, art, ref, preview, added_at
		FROM favorites
		ORDER BY added_at, provider, id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query favorites")
	}
	defer rows.Close()

	var entries []favorite.Entry
	for rows.Next() {
		var (
			e        favorite.Entry
			provider string
			addedAt  time.Time
		)
		if err := rows.Scan(&provider, &e.ID, &e.Track.Title, &e.Track.Artist, &e.Track.Album,
			&e.Track.DurationSec, &e.Track.ArtURL, &e.Track.Ref, &e.Track.Preview, &addedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan favorite")
		}
		e.Provider = track.Provider(provider)
		e.AddedAt = addedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read favorites")
	}
	return entries, nil
}

// Save replaces all stored entries in a single transaction.
func (s *SQLite) Save(entries []favorite.Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM favorites`); err != nil {
		return errors.Wrap(err, "failed to clear favorites")
	}

	stmt, err := tx.Prepare(`
		INSERT INTO favorites (provider, id, title, artist, album, duration_seconds, art, ref, preview, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(string(e.Provider), e.ID, e.Track.Title, e.Track.Artist, e.Track.Album,
			e.Track.DurationSec, e.Track.ArtURL, e.Track.Ref, e.Track.Preview, e.AddedAt.UTC()); err != nil {
			return errors.Wrapf(err, "failed to insert favorite %s", e.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit favorites")
	}
	return nil
}
