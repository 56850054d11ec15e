package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenUnusablePathFails(t *testing.T) {
	// A directory is not a database file; Open must error, not hand back
	// a half-initialized handle.
	db, err := Open(t.TempDir())
	if err == nil {
		db.Close()
		t.Fatal("expected Open to fail on a directory path")
	}
	if db != nil {
		t.Fatalf("got non-nil DB alongside error: %v", err)
	}
}

func TestCollectionRunStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	runs := []CollectionRun{
		{Kind: "scrape", StartedAt: time.Now(), PlatformsRequested: 2, PlatformsProcessed: 2, RecordsCollected: 40, DuplicatesRemoved: 3, PagesFetched: 4},
		{Kind: "scrape", StartedAt: time.Now(), PlatformsRequested: 1, PlatformsProcessed: 1, RecordsCollected: 10, PagesFetched: 1},
		{Kind: "reference", StartedAt: time.Now(), RecordsCollected: 200, PagesFetched: 2},
	}
	for _, run := range runs {
		if err := db.RecordCollectionRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := db.GetCollectionStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d kinds, want 2", len(stats))
	}
	// Ordered by kind: reference, scrape.
	if stats[0].Kind != "reference" || stats[0].RecordsCollected != 200 {
		t.Fatalf("reference stats = %+v", stats[0])
	}
	if stats[1].Kind != "scrape" || stats[1].Runs != 2 || stats[1].RecordsCollected != 50 || stats[1].PagesFetched != 5 {
		t.Fatalf("scrape stats = %+v", stats[1])
	}
}

func TestSelectionRunStats(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	runs := []SelectionRun{
		{PlatformName: "Mega Drive", EligibleGames: 120, SelectedCount: 20, FirstReleaseCount: 15, DuplicateCount: 5},
		{PlatformName: "Mega Drive", EligibleGames: 120, SelectedCount: 20, FirstReleaseCount: 17, DuplicateCount: 3},
		{PlatformName: "SNES", EligibleGames: 90, SelectedCount: 10, FirstReleaseCount: 10},
	}
	for _, run := range runs {
		if err := db.RecordSelectionRun(ctx, run); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := db.GetSelectionStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d platforms, want 2", len(stats))
	}
	if stats[0].PlatformName != "Mega Drive" || stats[0].Runs != 2 || stats[0].SelectedCount != 40 || stats[0].FirstReleaseCount != 32 {
		t.Fatalf("mega drive stats = %+v", stats[0])
	}
	if stats[1].PlatformName != "SNES" || stats[1].Runs != 1 {
		t.Fatalf("snes stats = %+v", stats[1])
	}
}

func TestInvalidKindRejected(t *testing.T) {
	db := openTestDB(t)
	err := db.RecordCollectionRun(context.Background(), CollectionRun{Kind: "bogus", StartedAt: time.Now()})
	if err == nil {
		t.Fatal("expected CHECK constraint failure for unknown run kind")
	}
}
