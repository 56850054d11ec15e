package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS collection_runs (
  id                  INTEGER PRIMARY KEY,
  kind                TEXT NOT NULL CHECK (kind IN ('reference','scrape')),
  started_at          DATETIME NOT NULL,
  finished_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  platforms_requested INTEGER NOT NULL DEFAULT 0,
  platforms_processed INTEGER NOT NULL DEFAULT 0,
  records_collected   INTEGER NOT NULL DEFAULT 0,
  duplicates_removed  INTEGER NOT NULL DEFAULT 0,
  pages_fetched       INTEGER NOT NULL DEFAULT 0,
  endpoints_failed    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_collection_runs_kind ON collection_runs(kind, finished_at);
CREATE TABLE IF NOT EXISTS selection_runs (
  id                  INTEGER PRIMARY KEY,
  occurred_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  platform_name       TEXT NOT NULL,
  eligible_games      INTEGER NOT NULL,
  selected_count      INTEGER NOT NULL,
  first_release_count INTEGER NOT NULL,
  duplicate_count     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_selection_runs_platform ON selection_runs(platform_name, occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// CollectionRun is one finished collection pass, either reference-data
// gathering or a platform scrape.
type CollectionRun struct {
	Kind               string
	StartedAt          time.Time
	PlatformsRequested int
	PlatformsProcessed int
	RecordsCollected   int
	DuplicatesRemoved  int
	PagesFetched       int
	EndpointsFailed    int
}

func (d *DB) RecordCollectionRun(ctx context.Context, run CollectionRun) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO collection_runs(kind, started_at, platforms_requested, platforms_processed, records_collected, duplicates_removed, pages_fetched, endpoints_failed)
		 VALUES(?,?,?,?,?,?,?,?)`,
		run.Kind, run.StartedAt.UTC(), run.PlatformsRequested, run.PlatformsProcessed,
		run.RecordsCollected, run.DuplicatesRemoved, run.PagesFetched, run.EndpointsFailed)
	return err
}

// SelectionRun is one platform's catalogue selection outcome.
type SelectionRun struct {
	PlatformName      string
	EligibleGames     int
	SelectedCount     int
	FirstReleaseCount int
	DuplicateCount    int
}

func (d *DB) RecordSelectionRun(ctx context.Context, run SelectionRun) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO selection_runs(platform_name, eligible_games, selected_count, first_release_count, duplicate_count)
		 VALUES(?,?,?,?,?)`,
		run.PlatformName, run.EligibleGames, run.SelectedCount, run.FirstReleaseCount, run.DuplicateCount)
	return err
}

// CollectionStats aggregates collection runs by kind.
type CollectionStats struct {
	Kind             string
	Runs             int
	RecordsCollected int
	PagesFetched     int
}

func (d *DB) GetCollectionStats(ctx context.Context) ([]CollectionStats, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT
			kind,
			COUNT(*),
			SUM(records_collected),
			SUM(pages_fetched)
		FROM
			collection_runs
		GROUP BY
			kind
		ORDER BY
			kind;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []CollectionStats
	for rows.Next() {
		var s CollectionStats
		if err := rows.Scan(&s.Kind, &s.Runs, &s.RecordsCollected, &s.PagesFetched); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// SelectionStats aggregates selection runs per platform.
type SelectionStats struct {
	PlatformName      string
	Runs              int
	SelectedCount     int
	FirstReleaseCount int
}

func (d *DB) GetSelectionStats(ctx context.Context) ([]SelectionStats, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT
			platform_name,
			COUNT(*),
			SUM(selected_count),
			SUM(first_release_count)
		FROM
			selection_runs
		GROUP BY
			platform_name
		ORDER BY
			platform_name;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []SelectionStats
	for rows.Next() {
		var s SelectionStats
		if err := rows.Scan(&s.PlatformName, &s.Runs, &s.SelectedCount, &s.FirstReleaseCount); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
