package history

import (
	"context"
	"testing"
	"time"

	"danmu/internal/rescache"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	cache, err := rescache.Open(t.TempDir(), rescache.DefaultPolicy(), nil)
	if err != nil {
		t.Fatalf("open cache store: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return New(cache.DB())
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entry := Entry{
		VideoKey:        "source1|某部动画",
		Title:           "某部动画",
		SourceKey:       "source1",
		EpisodeIndex:    3,
		PositionSeconds: 612.5,
		DurationSeconds: 1420,
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}

	got, err := store.Get(ctx, entry.VideoKey)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got == nil || got.EpisodeIndex != 3 || got.PositionSeconds != 612.5 {
		t.Fatalf("unexpected entry: %+v", got)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be set")
	}
}

func TestListOrdersSubSecondUpdates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Fractional seconds whose textual forms sort the wrong way round
	// ("…00.1Z" > "…00.15Z" as strings).
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	earlier := Entry{VideoKey: "a", Title: "a", SourceKey: "s", UpdatedAt: base.Add(100 * time.Millisecond)}
	later := Entry{VideoKey: "b", Title: "b", SourceKey: "s", UpdatedAt: base.Add(150 * time.Millisecond)}
	for _, entry := range []Entry{earlier, later} {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("record %s: %v", entry.VideoKey, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 2 || entries[0].VideoKey != "b" {
		t.Fatalf("expected newest-first ordering, got %+v", entries)
	}
}

func TestRecordUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := Entry{VideoKey: "k", Title: "t", SourceKey: "s", EpisodeIndex: 1, PositionSeconds: 10}
	if err := store.Record(ctx, base); err != nil {
		t.Fatalf("first record: %v", err)
	}
	base.EpisodeIndex = 2
	base.PositionSeconds = 99
	if err := store.Record(ctx, base); err != nil {
		t.Fatalf("second record: %v", err)
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one row after upsert, got %d", len(entries))
	}
	if entries[0].EpisodeIndex != 2 || entries[0].PositionSeconds != 99 {
		t.Fatalf("upsert did not overwrite: %+v", entries[0])
	}
}

func TestRecordRequiresKey(t *testing.T) {
	store := openTestStore(t)
	if err := store.Record(context.Background(), Entry{}); err == nil {
		t.Fatal("expected error for missing video key")
	}
}

func TestListNewestFirstAndCap(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	for i := range 55 {
		entry := Entry{
			VideoKey:  "key" + string(rune('0'+i%10)) + string(rune('a'+i/10)),
			Title:     "t",
			SourceKey: "s",
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 50 {
		t.Fatalf("expected history trimmed to 50, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].UpdatedAt.After(entries[i-1].UpdatedAt) {
			t.Fatalf("entries not newest first at %d", i)
		}
	}
}

func TestClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, Entry{VideoKey: "k", Title: "t", SourceKey: "s"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	entries, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d", len(entries))
	}
}
