package storage

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"inmo_dedup/models"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, eris.Wrapf(err, "storage: open sqlite %s", dbPath)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		ref_id TEXT,
		neighborhood TEXT,
		district TEXT NOT NULL,
		province TEXT,
		currency TEXT,
		amount REAL,
		price TEXT,
		url TEXT NOT NULL,
		description TEXT,
		property_type TEXT,
		agency TEXT,
		source_web TEXT NOT NULL,
		recent_id TEXT NOT NULL,
		scraped_at DATETIME NOT NULL,
		total_area TEXT NOT NULL,
		total_area_fixed REAL,
		floor_area TEXT,
		floor_area_fixed REAL,
		bedrooms TEXT,
		bathrooms TEXT,
		garage TEXT,
		has_gas BOOLEAN,
		has_water BOOLEAN,
		has_electricity BOOLEAN
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id TEXT PRIMARY KEY,
		site_id TEXT,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_fetched INTEGER DEFAULT 0,
		listings_found INTEGER DEFAULT 0,
		listings_saved INTEGER DEFAULT 0,
		errors_count INTEGER DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS scrape_logs (
		id INTEGER PRIMARY KEY,
		run_id TEXT,
		timestamp DATETIME,
		level TEXT,
		message TEXT,
		site_id TEXT
	);

	CREATE TABLE IF NOT EXISTS property_matches (
		id INTEGER PRIMARY KEY,
		listing_a TEXT NOT NULL,
		listing_b TEXT NOT NULL,
		property_type TEXT,
		match_reasons JSON,
		status TEXT DEFAULT 'pending',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(listing_a, listing_b)
	);

	CREATE INDEX IF NOT EXISTS idx_listings_block ON listings(property_type, district);
	CREATE INDEX IF NOT EXISTS idx_listings_source ON listings(source_web, scraped_at);
	CREATE INDEX IF NOT EXISTS idx_logs_run ON scrape_logs(run_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON scrape_runs(status, started_at);
	CREATE INDEX IF NOT EXISTS idx_matches_status ON property_matches(status);
	`
	_, err := s.db.Exec(schema)
	return eris.Wrap(err, "storage: migrate sqlite")
}

// SaveListings upserts by id inside one transaction.
func (s *SQLiteStore) SaveListings(ctx context.Context, listings []*models.PropertyRecord) (int, error) {
	if len(listings) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "storage: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertListingSQL(questionMark))
	if err != nil {
		return 0, eris.Wrap(err, "storage: prepare listing upsert")
	}
	defer stmt.Close()

	for _, l := range listings {
		if _, err := stmt.ExecContext(ctx, listingArgs(l)...); err != nil {
			return 0, eris.Wrapf(err, "storage: save listing %s", l.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "storage: commit listings")
	}
	return len(listings), nil
}

func (s *SQLiteStore) ListListings(ctx context.Context, filter ListingFilter) ([]*models.PropertyRecord, error) {
	query, args := selectListingsSQL(filter, questionMark)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list listings")
	}
	defer rows.Close()

	var listings []*models.PropertyRecord
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, eris.Wrap(err, "storage: scan listing")
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_runs (id, site_id, started_at, status)
		VALUES (?, ?, ?, ?)`,
		run.ID.String(), run.SiteID, run.StartedAt, run.Status)
	return eris.Wrap(err, "storage: create run")
}

func (s *SQLiteStore) FinishRun(ctx context.Context, run *models.ScrapeRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scrape_runs SET finished_at = ?, status = ?, pages_fetched = ?,
			listings_found = ?, listings_saved = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, run.Status, run.PagesFetched,
		run.ListingsFound, run.ListingsSaved, run.ErrorsCount, run.ID.String())
	return eris.Wrap(err, "storage: finish run")
}

func (s *SQLiteStore) Log(ctx context.Context, entry *models.ScrapeLog) error {
	var runID *string
	if entry.RunID != nil {
		id := entry.RunID.String()
		runID = &id
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_logs (run_id, timestamp, level, message, site_id)
		VALUES (?, ?, ?, ?, ?)`,
		runID, entry.Timestamp, entry.Level, entry.Message, entry.SiteID)
	if err != nil {
		return eris.Wrap(err, "storage: write log")
	}
	entry.ID, _ = result.LastInsertId()
	return nil
}

// InsertMatches stores new pairs and reports how many were not already known.
func (s *SQLiteStore) InsertMatches(ctx context.Context, matches []models.PropertyMatch) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "storage: begin")
	}
	defer tx.Rollback()

	inserted := 0
	for _, m := range matches {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO property_matches (listing_a, listing_b, property_type, match_reasons, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (listing_a, listing_b) DO NOTHING`,
			m.ListingA, m.ListingB, string(m.Category), string(m.MatchReasons), m.Status, m.CreatedAt)
		if err != nil {
			return 0, eris.Wrapf(err, "storage: insert match %s/%s", m.ListingA, m.ListingB)
		}
		if n, _ := result.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "storage: commit matches")
	}
	return inserted, nil
}

func (s *SQLiteStore) ListMatches(ctx context.Context, status string) ([]models.PropertyMatch, error) {
	query := "SELECT " + matchColumns + " FROM property_matches"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY listing_a, listing_b"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list matches")
	}
	defer rows.Close()

	var matches []models.PropertyMatch
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "storage: scan match")
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
