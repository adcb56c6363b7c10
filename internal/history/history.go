// Package history persists viewing progress so a reopened player can resume
// playback and re-sync the danmu overlay. Rows live in the shared cache
// database and are keyed by a stable video key.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const maxEntries = 50

// Entry is one remembered playback position.
type Entry struct {
	VideoKey        string
	Title           string
	SourceKey       string
	EpisodeIndex    int
	PositionSeconds float64
	DurationSeconds float64
	UpdatedAt       time.Time
}

// Store reads and writes viewing history rows.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New wraps an open cache database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record upserts the playback position for a video key.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if entry.VideoKey == "" {
		return errors.New("video key required")
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO viewing_history (
            video_key, title, source_key, episode_index,
            position_seconds, duration_seconds, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(video_key) DO UPDATE SET
            title = excluded.title,
            source_key = excluded.source_key,
            episode_index = excluded.episode_index,
            position_seconds = excluded.position_seconds,
            duration_seconds = excluded.duration_seconds,
            updated_at = excluded.updated_at`,
		entry.VideoKey, entry.Title, entry.SourceKey, entry.EpisodeIndex,
		entry.PositionSeconds, entry.DurationSeconds,
		entry.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM viewing_history WHERE video_key IN (
            SELECT video_key FROM viewing_history
            ORDER BY updated_at DESC
            LIMIT -1 OFFSET ?
        )`, maxEntries)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

// Get returns the remembered position for a video key.
func (s *Store) Get(ctx context.Context, videoKey string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT video_key, title, source_key, episode_index,
                position_seconds, duration_seconds, updated_at
         FROM viewing_history WHERE video_key = ?`, videoKey)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get history entry: %w", err)
	}
	return entry, nil
}

// List returns history entries newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT video_key, title, source_key, episode_index,
                position_seconds, duration_seconds, updated_at
         FROM viewing_history ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// Clear removes all history entries.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM viewing_history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry     Entry
		updatedAt int64
	)
	if err := row.Scan(&entry.VideoKey, &entry.Title, &entry.SourceKey,
		&entry.EpisodeIndex, &entry.PositionSeconds, &entry.DurationSeconds, &updatedAt); err != nil {
		return nil, err
	}
	entry.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &entry, nil
}
