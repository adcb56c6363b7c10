package rescache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"danmu/internal/dandan"
	"danmu/internal/logging"
)

const (
	detailSchemaVersion     = 1
	preferenceSchemaVersion = 1

	defaultDetailTTL     = 24 * time.Hour
	defaultDetailCap     = 100
	defaultPreferenceCap = 50
	defaultSlotTTL       = 30 * time.Minute
)

// Policy bounds the persisted namespaces.
type Policy struct {
	DetailTTL     time.Duration
	DetailCap     int
	PreferenceCap int
	SlotTTL       time.Duration
}

// DefaultPolicy returns the production cache bounds.
func DefaultPolicy() Policy {
	return Policy{
		DetailTTL:     defaultDetailTTL,
		DetailCap:     defaultDetailCap,
		PreferenceCap: defaultPreferenceCap,
		SlotTTL:       defaultSlotTTL,
	}
}

func (p Policy) normalized() Policy {
	if p.DetailTTL <= 0 {
		p.DetailTTL = defaultDetailTTL
	}
	if p.DetailCap <= 0 {
		p.DetailCap = defaultDetailCap
	}
	if p.PreferenceCap <= 0 {
		p.PreferenceCap = defaultPreferenceCap
	}
	if p.SlotTTL <= 0 {
		p.SlotTTL = defaultSlotTTL
	}
	return p
}

// DetailEntry is one cached series-detail resolution.
type DetailEntry struct {
	SourceID    int64
	Title       string
	Episodes    []dandan.Episode
	IsMovie     bool
	ContentType string
	Timestamp   time.Time
}

// Preference is the remembered source for a title.
type Preference struct {
	SourceID  int64
	Title     string
	Timestamp time.Time
}

// Stats summarizes the persisted namespaces.
type Stats struct {
	DetailEntries     int
	PreferenceEntries int
	HistoryEntries    int
	Path              string
}

// Store manages cache persistence backed by SQLite. A file lock next to the
// database guards against a second writer process.
type Store struct {
	db     *sql.DB
	path   string
	lock   *flock.Flock
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

// Open initializes or connects to the cache database, acquires the store
// lock, and applies migrations.
func Open(dir string, policy Policy, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "danmu.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire store lock: %w", err)
	}
	if !ok {
		return nil, errors.New("cache store is locked by another process")
	}

	dbPath := filepath.Join(dir, "danmu.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:     db,
		path:   dbPath,
		lock:   lock,
		policy: policy.normalized(),
		logger: logging.NewComponentLogger(logger, "rescache"),
		now:    time.Now,
	}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database connection and the store lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// DB exposes the underlying handle for sibling stores sharing the database.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func sourceKey(sourceID int64) string {
	return "anime_" + strconv.FormatInt(sourceID, 10)
}

func titleKey(titleHash string) string {
	return "title_" + titleHash
}

// SaveDetail writes a detail entry under both its source-id key and its
// title-hash key, then evicts the oldest rows past the cap. Write failures
// are logged and absorbed: the cache is best effort.
func (s *Store) SaveDetail(ctx context.Context, titleHash string, entry DetailEntry) {
	episodesJSON, err := json.Marshal(entry.Episodes)
	if err != nil {
		s.logger.Warn("marshal detail entry failed", "error", err)
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	// Timestamps persist as unix nanoseconds so ORDER BY and TTL cutoffs
	// compare chronologically.
	timestamp := entry.Timestamp.UnixNano()

	for _, key := range []string{sourceKey(entry.SourceID), titleKey(titleHash)} {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO detail_cache (
                cache_key, schema_version, source_id, title, episodes_json,
                is_movie, content_type, created_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(cache_key) DO UPDATE SET
                schema_version = excluded.schema_version,
                source_id = excluded.source_id,
                title = excluded.title,
                episodes_json = excluded.episodes_json,
                is_movie = excluded.is_movie,
                content_type = excluded.content_type,
                created_at = excluded.created_at`,
			key, detailSchemaVersion, entry.SourceID, entry.Title,
			string(episodesJSON), boolInt(entry.IsMovie), entry.ContentType, timestamp)
		if err != nil {
			s.logger.Warn("save detail entry failed", "error", err, "cache_key", key)
			return
		}
	}

	if err := s.evictDetailOverCap(ctx); err != nil {
		s.logger.Warn("detail cache eviction failed", "error", err)
	}
}

// GetDetailBySource looks up a detail entry by remote source id.
func (s *Store) GetDetailBySource(ctx context.Context, sourceID int64) (*DetailEntry, bool) {
	return s.getDetail(ctx, sourceKey(sourceID))
}

// GetDetailByTitle looks up a detail entry by normalized-title hash.
func (s *Store) GetDetailByTitle(ctx context.Context, titleHash string) (*DetailEntry, bool) {
	return s.getDetail(ctx, titleKey(titleHash))
}

func (s *Store) getDetail(ctx context.Context, key string) (*DetailEntry, bool) {
	row := s.db.QueryRowContext(ctx,
		`SELECT schema_version, source_id, title, episodes_json, is_movie, content_type, created_at
         FROM detail_cache WHERE cache_key = ?`, key)

	var (
		version      int
		entry        DetailEntry
		episodesJSON string
		isMovie      int
		createdAt    int64
	)
	err := row.Scan(&version, &entry.SourceID, &entry.Title, &episodesJSON, &isMovie, &entry.ContentType, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("read detail entry failed", "error", err, "cache_key", key)
		return nil, false
	}

	if version != detailSchemaVersion {
		s.discardDetail(ctx, key, "schema version mismatch")
		return nil, false
	}
	timestamp := time.Unix(0, createdAt).UTC()
	if s.now().Sub(timestamp) >= s.policy.DetailTTL {
		s.discardDetail(ctx, key, "expired")
		return nil, false
	}
	if err := json.Unmarshal([]byte(episodesJSON), &entry.Episodes); err != nil {
		s.discardDetail(ctx, key, "malformed episodes payload")
		return nil, false
	}

	entry.IsMovie = isMovie != 0
	entry.Timestamp = timestamp
	return &entry, true
}

// discardDetail removes an unusable row so the next read is a clean miss.
func (s *Store) discardDetail(ctx context.Context, key, reason string) {
	s.logger.Debug("discarding detail entry", "cache_key", key, "reason", reason)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM detail_cache WHERE cache_key = ?`, key); err != nil {
		s.logger.Warn("discard detail entry failed", "error", err, "cache_key", key)
	}
}

// InvalidateDetail removes the entries for a source and its title alias.
// Used when the user switches playback source: the series may differ, but
// the preference entry survives.
func (s *Store) InvalidateDetail(ctx context.Context, sourceID int64, titleHash string) {
	for _, key := range []string{sourceKey(sourceID), titleKey(titleHash)} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM detail_cache WHERE cache_key = ?`, key); err != nil {
			s.logger.Warn("invalidate detail entry failed", "error", err, "cache_key", key)
		}
	}
}

func (s *Store) evictDetailOverCap(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM detail_cache WHERE cache_key IN (
            SELECT cache_key FROM detail_cache
            ORDER BY created_at DESC
            LIMIT -1 OFFSET ?
        )`, s.policy.DetailCap)
	return err
}

// SavePreference remembers the chosen source for a title, evicting the
// least recently updated entries past the cap.
func (s *Store) SavePreference(ctx context.Context, titleHash string, pref Preference) {
	if pref.Timestamp.IsZero() {
		pref.Timestamp = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_preference (title_hash, schema_version, source_id, title, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(title_hash) DO UPDATE SET
             schema_version = excluded.schema_version,
             source_id = excluded.source_id,
             title = excluded.title,
             updated_at = excluded.updated_at`,
		titleHash, preferenceSchemaVersion, pref.SourceID, pref.Title,
		pref.Timestamp.UnixNano())
	if err != nil {
		s.logger.Warn("save preference failed", "error", err, "title_hash", titleHash)
		return
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM source_preference WHERE title_hash IN (
            SELECT title_hash FROM source_preference
            ORDER BY updated_at DESC
            LIMIT -1 OFFSET ?
        )`, s.policy.PreferenceCap)
	if err != nil {
		s.logger.Warn("preference eviction failed", "error", err)
	}
}

// GetPreference returns the remembered source for a title hash.
func (s *Store) GetPreference(ctx context.Context, titleHash string) (*Preference, bool) {
	row := s.db.QueryRowContext(ctx,
		`SELECT schema_version, source_id, title, updated_at
         FROM source_preference WHERE title_hash = ?`, titleHash)

	var (
		version   int
		pref      Preference
		updatedAt int64
	)
	err := row.Scan(&version, &pref.SourceID, &pref.Title, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("read preference failed", "error", err, "title_hash", titleHash)
		return nil, false
	}
	if version != preferenceSchemaVersion {
		s.discardPreference(ctx, titleHash)
		return nil, false
	}
	pref.Timestamp = time.Unix(0, updatedAt).UTC()
	return &pref, true
}

func (s *Store) discardPreference(ctx context.Context, titleHash string) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM source_preference WHERE title_hash = ?`, titleHash); err != nil {
		s.logger.Warn("discard preference failed", "error", err, "title_hash", titleHash)
	}
}

// Stats counts the persisted entries per namespace.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM detail_cache`, &stats.DetailEntries},
		{`SELECT COUNT(1) FROM source_preference`, &stats.PreferenceEntries},
		{`SELECT COUNT(1) FROM viewing_history`, &stats.HistoryEntries},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return stats, fmt.Errorf("count cache entries: %w", err)
		}
	}
	return stats, nil
}

// Prune drops expired detail entries and everything past the namespace caps.
// It returns the number of rows removed.
func (s *Store) Prune(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.policy.DetailTTL).UnixNano()
	removed := 0

	res, err := s.db.ExecContext(ctx, `DELETE FROM detail_cache WHERE created_at <= ?`, cutoff)
	if err != nil {
		return removed, fmt.Errorf("prune expired detail entries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		removed += int(n)
	}

	if err := s.evictDetailOverCap(ctx); err != nil {
		return removed, fmt.Errorf("prune detail cache cap: %w", err)
	}
	return removed, nil
}

// Clear wipes every cache namespace except viewing history.
func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"detail_cache", "source_preference"} {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
