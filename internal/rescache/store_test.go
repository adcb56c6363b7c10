package rescache

import (
	"context"
	"testing"
	"time"

	"danmu/internal/dandan"
	"danmu/internal/danmaku"
)

func openTestStore(t *testing.T, policy Policy) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), policy, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})
	return store
}

func sampleEntry(sourceID int64, ts time.Time) DetailEntry {
	return DetailEntry{
		SourceID:    sourceID,
		Title:       "某部动画",
		Episodes:    []dandan.Episode{{EpisodeID: 1, EpisodeTitle: "第1集"}, {EpisodeID: 2, EpisodeTitle: "第2集"}},
		IsMovie:     false,
		ContentType: "anime",
		Timestamp:   ts,
	}
}

func TestDetailRoundTrip(t *testing.T) {
	store := openTestStore(t, DefaultPolicy())
	ctx := context.Background()

	store.SaveDetail(ctx, "hash1", sampleEntry(42, time.Time{}))

	bySource, ok := store.GetDetailBySource(ctx, 42)
	if !ok {
		t.Fatal("expected hit by source id")
	}
	if len(bySource.Episodes) != 2 || bySource.ContentType != "anime" {
		t.Fatalf("unexpected entry: %+v", bySource)
	}

	byTitle, ok := store.GetDetailByTitle(ctx, "hash1")
	if !ok {
		t.Fatal("expected hit by title hash")
	}
	if byTitle.SourceID != 42 {
		t.Fatalf("unexpected source id %d", byTitle.SourceID)
	}
}

func TestDetailTTLBoundary(t *testing.T) {
	store := openTestStore(t, DefaultPolicy())
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }
	store.SaveDetail(ctx, "hash1", sampleEntry(42, time.Time{}))

	store.now = func() time.Time { return base.Add(defaultDetailTTL - time.Second) }
	if _, ok := store.GetDetailBySource(ctx, 42); !ok {
		t.Fatal("entry just inside the TTL should hit")
	}

	store.now = func() time.Time { return base.Add(defaultDetailTTL + time.Second) }
	if _, ok := store.GetDetailBySource(ctx, 42); ok {
		t.Fatal("entry past the TTL should miss")
	}
	// The expired row is discarded, so even a rolled-back clock misses.
	store.now = func() time.Time { return base }
	if _, ok := store.GetDetailBySource(ctx, 42); ok {
		t.Fatal("expired entry should have been discarded")
	}
}

func TestDetailCapEvictsOldest(t *testing.T) {
	store := openTestStore(t, Policy{DetailCap: 4})
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base.Add(time.Hour) }
	// Each SaveDetail writes a source row and a title row: two entries fill
	// the cap, the third evicts the oldest pair.
	for i := range 3 {
		entry := sampleEntry(int64(100+i), base.Add(time.Duration(i)*time.Minute))
		store.SaveDetail(ctx, "hash"+string(rune('a'+i)), entry)
	}

	if _, ok := store.GetDetailBySource(ctx, 100); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, ok := store.GetDetailBySource(ctx, 102); !ok {
		t.Fatal("newest entry should survive eviction")
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.DetailEntries != 4 {
		t.Fatalf("detail entries = %d, want cap 4", stats.DetailEntries)
	}
}

func TestDetailCapEvictionSubSecondOrder(t *testing.T) {
	store := openTestStore(t, Policy{DetailCap: 4})
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base.Add(time.Hour) }
	// Offsets chosen so the RFC3339 renderings would sort the wrong way
	// round; the stored unix-nanosecond column must stay chronological.
	offsets := []time.Duration{100 * time.Millisecond, 150 * time.Millisecond, 200 * time.Millisecond}
	for i, off := range offsets {
		store.SaveDetail(ctx, "hash"+string(rune('a'+i)), sampleEntry(int64(100+i), base.Add(off)))
	}

	if _, ok := store.GetDetailBySource(ctx, 100); ok {
		t.Fatal("chronologically oldest entry should have been evicted")
	}
	for _, id := range []int64{101, 102} {
		if _, ok := store.GetDetailBySource(ctx, id); !ok {
			t.Fatalf("entry %d should survive eviction", id)
		}
	}
}

func TestDetailMalformedRowIsMiss(t *testing.T) {
	store := openTestStore(t, DefaultPolicy())
	ctx := context.Background()

	store.SaveDetail(ctx, "hash1", sampleEntry(42, time.Time{}))
	if _, err := store.db.ExecContext(ctx,
		`UPDATE detail_cache SET episodes_json = 'not json' WHERE cache_key = ?`,
		sourceKey(42)); err != nil {
		t.Fatalf("corrupt row: %v", err)
	}

	if _, ok := store.GetDetailBySource(ctx, 42); ok {
		t.Fatal("malformed row should be a miss")
	}
	var count int
	if err := store.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM detail_cache WHERE cache_key = ?`, sourceKey(42)).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatal("malformed row should be discarded")
	}
}

func TestDetailSchemaVersionMismatchIsMiss(t *testing.T) {
	store := openTestStore(t, DefaultPolicy())
	ctx := context.Background()

	store.SaveDetail(ctx, "hash1", sampleEntry(42, time.Time{}))
	if _, err := store.db.ExecContext(ctx,
		`UPDATE detail_cache SET schema_version = 99 WHERE cache_key = ?`, sourceKey(42)); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if _, ok := store.GetDetailBySource(ctx, 42); ok {
		t.Fatal("future schema version should be a miss")
	}
}

func TestInvalidateDetailPreservesPreference(t *testing.T) {
	store := openTestStore(t, DefaultPolicy())
	ctx := context.Background()

	store.SaveDetail(ctx, "hash1", sampleEntry(42, time.Time{}))
	store.SavePreference(ctx, "hash1", Preference{SourceID: 42, Title: "某部动画"})

	store.InvalidateDetail(ctx, 42, "hash1")

	if _, ok := store.GetDetailBySource(ctx, 42); ok {
		t.Fatal("detail entry should be invalidated")
	}
	if _, ok := store.GetDetailByTitle(ctx, "hash1"); ok {
		t.Fatal("title alias should be invalidated")
	}
	if _, ok := store.GetPreference(ctx, "hash1"); !ok {
		t.Fatal("preference must survive a source switch")
	}
}

func TestPreferenceCapEvictsLeastRecent(t *testing.T) {
	store := openTestStore(t, Policy{PreferenceCap: 2})
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	for i := range 3 {
		store.SavePreference(ctx, "hash"+string(rune('a'+i)), Preference{
			SourceID:  int64(i),
			Title:     "标题",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	if _, ok := store.GetPreference(ctx, "hasha"); ok {
		t.Fatal("oldest preference should have been evicted")
	}
	if _, ok := store.GetPreference(ctx, "hashc"); !ok {
		t.Fatal("newest preference should survive")
	}
}

func TestPruneRemovesExpired(t *testing.T) {
	store := openTestStore(t, DefaultPolicy())
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.SaveDetail(ctx, "old", sampleEntry(1, base.Add(-25*time.Hour)))
	store.SaveDetail(ctx, "new", sampleEntry(2, base))
	store.now = func() time.Time { return base }

	removed, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want the expired source and title rows", removed)
	}
	if _, ok := store.GetDetailBySource(ctx, 2); !ok {
		t.Fatal("fresh entry should survive prune")
	}
}

func TestClearKeepsHistory(t *testing.T) {
	store := openTestStore(t, DefaultPolicy())
	ctx := context.Background()

	store.SaveDetail(ctx, "hash1", sampleEntry(42, time.Time{}))
	store.SavePreference(ctx, "hash1", Preference{SourceID: 42, Title: "标题"})
	if _, err := store.db.ExecContext(ctx,
		`INSERT INTO viewing_history (video_key, title, source_key, episode_index, position_seconds, duration_seconds, updated_at)
         VALUES ('k', 't', 's', 0, 1, 2, ?)`,
		time.Now().UnixNano()); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats returned error: %v", err)
	}
	if stats.DetailEntries != 0 || stats.PreferenceEntries != 0 {
		t.Fatalf("cache namespaces not cleared: %+v", stats)
	}
	if stats.HistoryEntries != 1 {
		t.Fatalf("history must survive cache clear: %+v", stats)
	}
}

func TestSlotValidity(t *testing.T) {
	slot := NewSlot(30 * time.Minute)
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	slot.now = func() time.Time { return base }

	comments := []danmaku.Comment{{Text: "弹幕", Time: 1}}
	slot.Put("hash1", 3, comments)

	if _, ok := slot.Get("hash1", 4); ok {
		t.Fatal("episode index mismatch must miss")
	}
	if _, ok := slot.Get("hash2", 3); ok {
		t.Fatal("title mismatch must miss")
	}
	got, ok := slot.Get("hash1", 3)
	if !ok || len(got) != 1 {
		t.Fatalf("expected hit, got %v ok=%v", got, ok)
	}

	slot.now = func() time.Time { return base.Add(31 * time.Minute) }
	if _, ok := slot.Get("hash1", 3); ok {
		t.Fatal("slot past TTL must miss")
	}

	slot.now = func() time.Time { return base }
	slot.Invalidate()
	if _, ok := slot.Get("hash1", 3); ok {
		t.Fatal("invalidated slot must miss")
	}
}
